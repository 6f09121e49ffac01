package orm

import (
	"context"

	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
)

type Updater[T any] struct {
	builder
	assigns []Assignable // 由于处理 name=zheng
	val     *T           // 更新用的结构体，Set(C("FirstName")) 的时候从这里取值
	where   []Condition
	sess    Session
}

func NewUpdater[T any](sess Session) *Updater[T] {
	return &Updater[T]{
		builder: newBuilder(sess.getCore()),
		sess:    sess,
	}
}

func (u *Updater[T]) Update(t *T) *Updater[T] {
	u.val = t
	return u
}

func (u *Updater[T]) Set(assigns ...Assignable) *Updater[T] {
	u.assigns = assigns
	return u
}

func (u *Updater[T]) Where(cs ...Condition) *Updater[T] {
	u.where = cs
	return u
}

func (u *Updater[T]) Build() (*Query, error) {
	if err := u.build(); err != nil {
		return nil, err
	}
	stmt, err := u.statement(u.detached())
	if err != nil {
		return nil, err
	}
	return u.query(stmt), nil
}

func (u *Updater[T]) build() error {
	if len(u.assigns) == 0 {
		return errs.ErrNoUpdatedColumns
	}
	u.reset()
	mp, err := u.core.mappingOf(new(T))
	if err != nil {
		return err
	}
	u.model = mp.m

	u.sb.WriteString("UPDATE ")
	u.quote(u.model.TableName)
	u.sb.WriteString(" SET ")
	for i, a := range u.assigns {
		if i > 0 {
			u.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case Column:
			// 使用 val 里面对应字段的值
			fd, ok := u.model.Field(assign.name)
			if !ok {
				return errs.NewErrUnknownField(assign.name)
			}
			if u.val == nil {
				return errs.NewErrUnsupportedAssignableType(assign)
			}
			u.quote(fd.ColName)
			u.sb.WriteString("=?")
			u.addBinding(recordBinding{
				rec: record.NewUntyped(uuid.Nil, u.val),
				c:   fieldContributor(u.model, fd),
				n:   1,
			})
		case Assignment:
			if err = u.buildAssignment(assign); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedAssignableType(a)
		}
	}
	if where := conditions(u.where); !where.IsEmpty() {
		u.sb.WriteString(" WHERE ")
		u.buildCondition(where)
	}
	u.sb.WriteByte(';')
	return nil
}

// Exec 更新之后整张表的行缓存都会失效，因为不知道更新了哪些行
func (u *Updater[T]) Exec(ctx context.Context) Result {
	if err := u.build(); err != nil {
		return Result{err: err}
	}
	return execResult(ctx, u.sess, &u.builder, "UPDATE", new(T))
}
