package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind 业务错误分类
// 请求层只依据 Kind 决定 HTTP 状态码，持久层错误码不会越过服务边界
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NotFound 引用的实体不存在
func NotFound(message string) *Error { return &Error{Kind: KindNotFound, Message: message} }

// BadRequest 输入不合法或前置条件不满足
func BadRequest(message string) *Error { return &Error{Kind: KindBadRequest, Message: message} }

// Forbidden 授权拒绝
func Forbidden(message string) *Error { return &Error{Kind: KindForbidden, Message: message} }

// Wrapf 在业务错误上附加动态说明，errors.Is 仍能匹配原哨兵
func Wrapf(sentinel *Error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// KindOf 解析错误分类；非业务错误一律视为 internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = BadRequest("数据已被其他操作修改，请刷新后重试")

// ErrTxTimeout 事务超时，整个事务已回滚，调用方可重试
var ErrTxTimeout = errors.New("事务执行超时，已回滚，请稍后重试")

// ErrReferenceMissing 外键引用的记录不存在
var ErrReferenceMissing = NotFound("引用的记录不存在")

// Postgres 错误码
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromDB 将持久层错误翻译为业务错误
//   - gorm.ErrRecordNotFound → notFound
//   - 唯一约束冲突 → duplicate
//   - 外键冲突 → ErrReferenceMissing
//   - 超时 → ErrTxTimeout
//
// 其余错误原样返回（由请求层按 internal 处理）
func FromDB(err error, notFound, duplicate *Error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal || errors.Is(err, ErrTxTimeout) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTxTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if duplicate != nil {
				return duplicate
			}
		case pgForeignKeyViolation:
			return ErrReferenceMissing
		}
	}
	return err
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
