package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// サービス名は dailyreport.v1 パッケージに揃えます。
const (
	AuthServiceName     = "dailyreport.v1.AuthService"
	EmployeeServiceName = "dailyreport.v1.EmployeeService"
	ReportServiceName   = "dailyreport.v1.ReportService"
)

// LoginMethod は認証不要のログイン RPC のフルメソッド名です。
const LoginMethod = "/" + AuthServiceName + "/Login"

// unaryMethod は google.protobuf.Struct を入出力とする単項 RPC です。
type unaryMethod func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// AuthServer は AuthService の実装が満たすインターフェースです。
type AuthServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// EmployeeServer は EmployeeService の実装が満たすインターフェースです。
type EmployeeServer interface {
	ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ReportServer は ReportService の実装が満たすインターフェースです。
type ReportServer interface {
	ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// AuthServiceDesc は AuthService のサービス定義です。
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(AuthServiceName, "Login", func(srv any) unaryMethod { return srv.(AuthServer).Login }),
		methodDesc(AuthServiceName, "Logout", func(srv any) unaryMethod { return srv.(AuthServer).Logout }),
	},
	Metadata: "dailyreport/v1/auth.proto",
}

// EmployeeServiceDesc は EmployeeService のサービス定義です。
var EmployeeServiceDesc = grpc.ServiceDesc{
	ServiceName: EmployeeServiceName,
	HandlerType: (*EmployeeServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(EmployeeServiceName, "ListEmployees", func(srv any) unaryMethod { return srv.(EmployeeServer).ListEmployees }),
		methodDesc(EmployeeServiceName, "GetEmployee", func(srv any) unaryMethod { return srv.(EmployeeServer).GetEmployee }),
		methodDesc(EmployeeServiceName, "CreateEmployee", func(srv any) unaryMethod { return srv.(EmployeeServer).CreateEmployee }),
		methodDesc(EmployeeServiceName, "UpdateEmployee", func(srv any) unaryMethod { return srv.(EmployeeServer).UpdateEmployee }),
		methodDesc(EmployeeServiceName, "DeleteEmployee", func(srv any) unaryMethod { return srv.(EmployeeServer).DeleteEmployee }),
	},
	Metadata: "dailyreport/v1/employee.proto",
}

// ReportServiceDesc は ReportService のサービス定義です。
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ReportServiceName,
	HandlerType: (*ReportServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc(ReportServiceName, "ListReports", func(srv any) unaryMethod { return srv.(ReportServer).ListReports }),
		methodDesc(ReportServiceName, "GetReport", func(srv any) unaryMethod { return srv.(ReportServer).GetReport }),
		methodDesc(ReportServiceName, "CreateReport", func(srv any) unaryMethod { return srv.(ReportServer).CreateReport }),
		methodDesc(ReportServiceName, "UpdateReport", func(srv any) unaryMethod { return srv.(ReportServer).UpdateReport }),
		methodDesc(ReportServiceName, "DeleteReport", func(srv any) unaryMethod { return srv.(ReportServer).DeleteReport }),
	},
	Metadata: "dailyreport/v1/report.proto",
}

// RegisterAuthServer は AuthService を登録します。
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// RegisterEmployeeServer は EmployeeService を登録します。
func RegisterEmployeeServer(s grpc.ServiceRegistrar, srv EmployeeServer) {
	s.RegisterService(&EmployeeServiceDesc, srv)
}

// RegisterReportServer は ReportService を登録します。
func RegisterReportServer(s grpc.ServiceRegistrar, srv ReportServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

func methodDesc(service, name string, pick func(srv any) unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := pick(srv)
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(ctx, req.(*structpb.Struct))
			})
		},
	}
}
