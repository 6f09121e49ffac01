package orm

import (
	"context"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
)

// 下面是以 record 为单位的操作，每个操作都是一次顶层操作：
// 获取一个连接，创建一个 ExecContext，结束的时候释放连接

// TableOf returns the table T is mapped to, id column first.
func TableOf[T any](sess Session) (model.Table, error) {
	mp, err := sess.getCore().mappingOf(new(T))
	if err != nil {
		return model.Table{}, err
	}
	return mp.table, nil
}

// CreateTable 表已经存在的时候返回 ErrDuplicateTable
func CreateTable[T any](ctx context.Context, sess Session) error {
	_, err := withExec(ctx, sess, func(ec *ExecContext) (struct{}, error) {
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return struct{}{}, err
		}
		b := newBuilder(ec.core)
		b.model = mp.m
		b.buildCreateTable(mp.table)
		stmt, err := b.statement(ec)
		if err != nil {
			return struct{}{}, err
		}
		_, err = ec.exec("CREATE", mp.m, stmt)
		return struct{}{}, ec.core.dialect.translateErr(mp.table.Name, err)
	})
	return err
}

// Insert 插入一个新对象。没有 id 的时候分配一个新的 id 并写回 id 字段
// 引用的对象没有 id 的时候会先被插入
func Insert[T any](ctx context.Context, sess Session, v *T) (record.Record[T], error) {
	if v == nil {
		return record.Record[T]{}, errs.ErrPointerOnly
	}
	return withExec(ctx, sess, func(ec *ExecContext) (record.Record[T], error) {
		mp, err := ec.core.mappingOf(v)
		if err != nil {
			return record.Record[T]{}, err
		}
		id, err := ec.assign(mp, v)
		if err != nil {
			return record.Record[T]{}, err
		}
		b := newBuilder(ec.core)
		b.model = mp.m
		if err = b.buildInsert(mp, []record.Entity{record.NewUntyped(id, v)}, nil, nil); err != nil {
			return record.Record[T]{}, err
		}
		if err = ec.execWrite(&b, "INSERT", mp, id); err != nil {
			return record.Record[T]{}, err
		}
		return record.New(id, v), nil
	})
}

// Save 按 id 插入或者更新，record 的 id 优先于 id 字段
func Save[T any](ctx context.Context, sess Session, rec record.Record[T]) error {
	if rec.Value() == nil {
		return errs.ErrPointerOnly
	}
	_, err := withExec(ctx, sess, func(ec *ExecContext) (struct{}, error) {
		mp, err := ec.core.mappingOf(rec.Value())
		if err != nil {
			return struct{}{}, err
		}
		m := mp.m
		if m.IDField != nil {
			if err = ec.core.valCreator(rec.Value(), m).SetField(m.IDField, rec.ID()); err != nil {
				return struct{}{}, err
			}
		}
		ec.ids[rec.Object()] = rec.ID()

		upsert := &Upsert{conflictColumns: []string{m.IDColumn}}
		for _, f := range m.Fields {
			upsert.assigns = append(upsert.assigns, C(f.GoName))
		}
		if len(upsert.assigns) == 0 {
			// 只有 id 列的表，冲突的时候什么都不用做
			upsert.assigns = append(upsert.assigns, Assign(m.IDColumn, C(m.IDColumn)))
		}

		b := newBuilder(ec.core)
		b.model = m
		if err = b.buildInsert(mp, []record.Entity{rec}, nil, upsert); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, ec.execWrite(&b, "INSERT", mp, rec.ID())
	})
	return err
}

// Load 按 id 加载，不存在的时候返回 ErrNoRows
func Load[T any](ctx context.Context, sess Session, id uuid.UUID) (record.Record[T], error) {
	return withExec(ctx, sess, func(ec *ExecContext) (record.Record[T], error) {
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return record.Record[T]{}, err
		}
		rs, err := ec.fetch(mp, id)
		if err != nil {
			return record.Record[T]{}, err
		}
		if !rs.Next() {
			return record.Record[T]{}, errs.NewErrNoRows(mp.m.TableName, id)
		}
		return readRecord[T](ec, mp, rs)
	})
}

// Find 返回满足条件的全部 record，空条件代表全部数据
// 同一次 Find 里面，多行引用同一个对象的时候只加载一次
func Find[T any](ctx context.Context, sess Session, where Condition) ([]record.Record[T], error) {
	return withExec(ctx, sess, func(ec *ExecContext) ([]record.Record[T], error) {
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return nil, err
		}
		b := newBuilder(ec.core)
		b.model = mp.m
		b.buildSelectWhere(mp.table, where)
		stmt, err := b.statement(ec)
		if err != nil {
			return nil, err
		}
		rs, err := ec.query("SELECT", mp.m, stmt)
		if err != nil {
			return nil, err
		}
		var res []record.Record[T]
		for rs.Next() {
			rec, err := readRecord[T](ec, mp, rs)
			if err != nil {
				return nil, err
			}
			res = append(res, rec)
		}
		return res, nil
	})
}

// Delete 返回删除的行数
func Delete[T any](ctx context.Context, sess Session, where Condition) (int64, error) {
	return NewDeleter[T](sess).Where(where).Exec(ctx).RowsAffected()
}

// ListTables 列出当前数据库的全部表
func ListTables(ctx context.Context, sess Session) ([]string, error) {
	c, err := sess.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()
	return c.Tables(ctx)
}

// TableExists 表名为空的时候返回 ErrNullTable
func TableExists(ctx context.Context, sess Session, name string) (bool, error) {
	c, err := sess.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = c.Close() }()
	return c.TableExists(ctx, name)
}

// readRecord 把当前行读成一个 record，所有字段都必须读到
// 同一个 id 已经被引用加载过的时候，record 指向同一个实例
func readRecord[T any](ec *ExecContext, mp *mapping, rs conn.ResultSet) (record.Record[T], error) {
	fields := make([]string, 0, len(mp.m.Fields))
	for _, f := range mp.m.Fields {
		fields = append(fields, f.GoName)
	}
	instance, err := ec.instanceFor(mp, rs)
	if err != nil {
		return record.Record[T]{}, err
	}
	cr, err := record.NewConfigurable(instance, fields...)
	if err != nil {
		return record.Record[T]{}, err
	}
	if _, err = (recordReader{rowReader: mp.reader}).Contribute(cr, rs, ec); err != nil {
		return record.Record[T]{}, err
	}
	return record.Freeze[T](cr)
}

// buildCreateTable CREATE TABLE `t` (`id` CHAR(36) PRIMARY KEY,`name` TEXT);
func (b *builder) buildCreateTable(t model.Table) {
	b.sb.WriteString("CREATE TABLE ")
	b.quote(t.Name)
	b.sb.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.quote(c.Name)
		b.sb.WriteByte(' ')
		b.sb.WriteString(b.dialect.columnType(c.SQLType))
		if i == 0 {
			b.sb.WriteString(" PRIMARY KEY")
		}
	}
	b.sb.WriteString(");")
}

// buildSelectWhere SELECT `id`,`a` FROM `t` WHERE ...;
func (b *builder) buildSelectWhere(t model.Table, where Condition) {
	b.sb.WriteString("SELECT ")
	for i, c := range t.Columns {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		b.quote(c.Name)
	}
	b.sb.WriteString(" FROM ")
	b.quote(t.Name)
	if !where.IsEmpty() {
		b.sb.WriteString(" WHERE ")
		b.buildCondition(where)
	}
	b.sb.WriteByte(';')
}
