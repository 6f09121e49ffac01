package orm

import (
	"context"

	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
)

// UpsertBuilder 构造 INSERT 之后 ON DUPLICATE KEY / ON CONFLICT 的部分
type UpsertBuilder[T any] struct {
	i               *Inserter[T]
	conflictColumns []string
}

type Upsert struct {
	assigns         []Assignable
	conflictColumns []string
}

// ConflictColumns 只有 SQLite 会使用，MySQL 忽略
func (o *UpsertBuilder[T]) ConflictColumns(cols ...string) *UpsertBuilder[T] {
	o.conflictColumns = cols
	return o
}

// Update 也可以看做是一个终结方法，重新回到 Inserter 里面
func (o *UpsertBuilder[T]) Update(assigns ...Assignable) *Inserter[T] {
	o.i.onDuplicate = &Upsert{
		assigns:         assigns,
		conflictColumns: o.conflictColumns,
	}
	return o.i
}

type Inserter[T any] struct {
	builder
	values      []*T     // 缓存要插入的数据
	columns     []string // 只插入哪些字段，id 总是会插入
	onDuplicate *Upsert
	sess        Session
}

func NewInserter[T any](sess Session) *Inserter[T] {
	return &Inserter[T]{
		builder: newBuilder(sess.getCore()),
		sess:    sess,
	}
}

// Values 将插入数据库中的数据
// 没有 id 的数据在 Exec 的时候分配一个新的 id，并且写回 id 字段
// Build 只是生成一个临时的 id，不会修改传入的数据
func (i *Inserter[T]) Values(vals ...*T) *Inserter[T] {
	i.values = vals
	return i
}

// Columns 插入指定的字段
func (i *Inserter[T]) Columns(cols ...string) *Inserter[T] {
	i.columns = cols
	return i
}

func (i *Inserter[T]) OnDuplicateKey() *UpsertBuilder[T] {
	return &UpsertBuilder[T]{
		i: i,
	}
}

func (i *Inserter[T]) Build() (*Query, error) {
	ec := i.detached()
	if err := i.build(ec); err != nil {
		return nil, err
	}
	stmt, err := i.statement(ec)
	if err != nil {
		return nil, err
	}
	return i.query(stmt), nil
}

func (i *Inserter[T]) build(ec *ExecContext) error {
	if len(i.values) == 0 {
		return errs.ErrInsertZeroRow
	}
	i.reset()
	mp, err := i.core.mappingOf(new(T))
	if err != nil {
		return err
	}
	i.model = mp.m

	recs := make([]record.Entity, 0, len(i.values))
	for _, val := range i.values {
		id, err := ec.assign(mp, val)
		if err != nil {
			return err
		}
		recs = append(recs, record.NewUntyped(id, val))
	}

	var fields []*model.Field
	if len(i.columns) != 0 {
		// 如果只插入部分字段
		fields = make([]*model.Field, 0, len(i.columns))
		for _, c := range i.columns {
			fd, ok := mp.m.Field(c)
			if !ok {
				return errs.NewErrUnknownField(c)
			}
			fields = append(fields, fd)
		}
	}
	return i.buildInsert(mp, recs, fields, i.onDuplicate)
}

// ids 本次插入的全部 id，用于让行缓存失效
func (i *Inserter[T]) ids(ec *ExecContext) []uuid.UUID {
	res := make([]uuid.UUID, 0, len(i.values))
	for _, val := range i.values {
		res = append(res, ec.ids[val])
	}
	return res
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	res, err := withExec(ctx, i.sess, func(ec *ExecContext) (Result, error) {
		if err := i.build(ec); err != nil {
			return Result{}, err
		}
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return Result{}, err
		}
		res, err := ec.execBuilder(&i.builder, "INSERT", mp, i.ids(ec)...)
		return Result{res: res, err: err}, err
	})
	if err != nil {
		return Result{err: err}
	}
	return res
}

// buildInsert INSERT INTO `t` (`id`,`a`,`b`) VALUES (?,?,?),(?,?,?);
// 每一行交给 rowWriter 写入，fields 为 nil 的时候写入全部字段
func (b *builder) buildInsert(mp *mapping, recs []record.Entity, fields []*model.Field, upsert *Upsert) error {
	writer := mp.writer
	if fields != nil {
		writer = newRowWriter(mp.m, fields)
	} else {
		fields = mp.m.Fields
	}

	b.sb.WriteString("INSERT INTO ")
	b.quote(mp.m.TableName)
	b.sb.WriteString(" (")
	b.quote(mp.m.IDColumn)
	for _, fd := range fields {
		b.sb.WriteByte(',')
		b.quote(fd.ColName)
	}

	b.sb.WriteString(") VALUES ")
	for idx, rec := range recs {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		b.sb.WriteByte('(')
		for j := 0; j < writer.width(); j++ {
			if j > 0 {
				b.sb.WriteByte(',')
			}
			b.sb.WriteByte('?')
		}
		b.sb.WriteByte(')')
		b.addBinding(recordBinding{rec: rec, c: writer, n: writer.width()})
	}

	if upsert != nil {
		if err := b.dialect.buildUpsert(b, upsert); err != nil {
			return err
		}
	}
	b.sb.WriteByte(';')
	return nil
}
