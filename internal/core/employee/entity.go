package employee

import "time"

// Role は社員の権限を表します。
type Role string

const (
	RoleGeneral Role = "GENERAL"
	RoleAdmin   Role = "ADMIN"
)

// Label は画面表示用の権限名を返します。
func (r Role) Label() string {
	switch r {
	case RoleGeneral:
		return "一般"
	case RoleAdmin:
		return "管理者"
	default:
		return ""
	}
}

// Employee は社員エンティティです。
type Employee struct {
	Code string
	Name string
	Role Role
	// Password は常にハッシュ値です。
	Password  string
	DeleteFlg bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal は認証済みの呼び出し元社員を表します。
type Principal struct {
	Code string
	Name string
	Role Role
}

// IsAdmin は管理者権限を持つかどうかを返します。
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Principal は社員から呼び出し元情報を生成します。
func (e *Employee) Principal() Principal {
	if e == nil {
		return Principal{}
	}
	return Principal{Code: e.Code, Name: e.Name, Role: e.Role}
}
