package employee

import "context"

// Repository は社員永続化の抽象です。
// 参照系はすべて論理削除済みの行を除外します。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	FindByCode(ctx context.Context, code string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
}
