package orm

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/handler"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
)

var errDetached = errors.New("orm: 没有可用的连接，无法在 Build 中执行查询")

// refKey 同一个 id 在不同的表里面可能重复，所以加上表名
type refKey struct {
	table string
	id    uuid.UUID
}

// resolution 已经加载或者正在加载的引用对象
// done 为 false 的时候代表对象还在构造中，只是一个占位
type resolution struct {
	instance any
	done     bool
}

// ExecContext 一次顶层操作（Save, Load, Find ...）的上下文
// 持有一个连接，一个引用缓存，不能在多个 goroutine 之间共享
type ExecContext struct {
	ctx      context.Context
	conn     conn.Conn
	core     core
	resolved map[refKey]*resolution
	// ids 保存的时候对象指针到 id 的映射
	ids   map[any]uuid.UUID
	loads int
}

func newExecContext(ctx context.Context, c conn.Conn, cr core) *ExecContext {
	return &ExecContext{
		ctx:      ctx,
		conn:     c,
		core:     cr,
		resolved: make(map[refKey]*resolution, 8),
		ids:      make(map[any]uuid.UUID, 8),
	}
}

// withExec 获取连接，执行 fn，然后在任何情况下都释放连接
func withExec[R any](ctx context.Context, sess Session, fn func(ec *ExecContext) (R, error)) (res R, err error) {
	c, err := sess.acquire(ctx)
	if err != nil {
		return res, err
	}
	defer func() {
		if cErr := c.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return fn(newExecContext(ctx, c, sess.getCore()))
}

func (ec *ExecContext) Context() context.Context {
	return ec.ctx
}

func (ec *ExecContext) Conn() conn.Conn {
	return ec.conn
}

func (ec *ExecContext) Handlers() *handler.Registry {
	return ec.core.handlers()
}

// Loads returns how many nested loads of referenced objects hit the database
// or the row cache. Cached resolutions are not counted.
func (ec *ExecContext) Loads() int {
	return ec.loads
}

// run 经过中间件执行 fn
func (ec *ExecContext) run(typ string, m *model.Model, stmt *conn.Statement,
	fn func(ctx context.Context) (any, error)) *QueryResult {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		res, err := fn(ctx)
		return &QueryResult{Result: res, Err: err}
	}
	for i := len(ec.core.mdls) - 1; i >= 0; i-- {
		root = ec.core.mdls[i](root)
	}
	return root(ec.ctx, &QueryContext{
		Type:    typ,
		Builder: statementBuilder{stmt: stmt},
		Model:   m,
	})
}

func (ec *ExecContext) query(typ string, m *model.Model, stmt *conn.Statement) (conn.ResultSet, error) {
	if ec.conn == nil {
		return nil, errDetached
	}
	res := ec.run(typ, m, stmt, func(ctx context.Context) (any, error) {
		return ec.conn.Query(ctx, stmt)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(conn.ResultSet), nil
}

func (ec *ExecContext) exec(typ string, m *model.Model, stmt *conn.Statement) (sql.Result, error) {
	if ec.conn == nil {
		return nil, errDetached
	}
	res := ec.run(typ, m, stmt, func(ctx context.Context) (any, error) {
		return ec.conn.Exec(ctx, stmt)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(sql.Result), nil
}

// fetch 按 id 查询一行，先查行缓存
func (ec *ExecContext) fetch(mp *mapping, id uuid.UUID) (conn.ResultSet, error) {
	table := mp.m.TableName
	if ec.core.cache != nil {
		row, ok, err := ec.core.cache.Get(ec.ctx, table, id)
		if err != nil {
			return nil, err
		}
		if ok {
			ec.core.logger.Debug("orm: row cache hit", slog.String("table", table), slog.String("id", id.String()))
			return conn.NewRows(row.Columns, [][]any{row.Values}), nil
		}
	}

	b := newBuilder(ec.core)
	b.model = mp.m
	idCol := string(b.quoter) + mp.m.IDColumn + string(b.quoter)
	b.buildSelectWhere(mp.table, Where(idCol, OpEQ, id))
	stmt, err := b.statement(ec)
	if err != nil {
		return nil, err
	}
	rs, err := ec.query("SELECT", mp.m, stmt)
	if err != nil || ec.core.cache == nil {
		return rs, err
	}

	rows, ok := rs.(*conn.Rows)
	if !ok || rows.Len() != 1 || !rows.Next() {
		return rs, nil
	}
	row := cache.Row{Columns: rows.Columns(), Values: rows.Row()}
	if err = ec.core.cache.Set(ec.ctx, table, id, row); err != nil {
		return nil, err
	}
	return conn.NewRows(row.Columns, [][]any{row.Values}), nil
}

// resolve 返回 id 对应的实例，同一个 ExecContext 里面同一个 id 只加载一次
// 缓存项在递归之前就放进去了，所以循环引用会拿到正在构造的同一个实例
func (ec *ExecContext) resolve(mp *mapping, id uuid.UUID) (any, error) {
	key := refKey{table: mp.m.TableName, id: id}
	if res, ok := ec.resolved[key]; ok {
		return res.instance, nil
	}
	instance := reflect.New(mp.m.Type).Interface()
	res := &resolution{instance: instance}
	ec.resolved[key] = res
	ec.ids[instance] = id
	ec.loads++
	ec.core.logger.Debug("orm: nested load", slog.String("table", key.table), slog.String("id", id.String()))

	rs, err := ec.fetch(mp, id)
	if err != nil {
		delete(ec.resolved, key)
		return nil, err
	}
	if !rs.Next() {
		delete(ec.resolved, key)
		return nil, errs.NewErrNoRows(key.table, id)
	}
	if _, err = mp.reader.Contribute(instance, rs, ec); err != nil {
		delete(ec.resolved, key)
		return nil, err
	}
	res.done = true
	return instance, nil
}

// instanceFor 返回读取当前行使用的实例
// 这一行的 id 在本次操作里面已经解析过的时候复用那个实例，否则创建一个新的
func (ec *ExecContext) instanceFor(mp *mapping, rs conn.ResultSet) (any, error) {
	for i, col := range rs.Columns() {
		if col != mp.m.IDColumn {
			continue
		}
		raw, err := mp.m.IDHandler.Extract(rs, i+1)
		if err != nil {
			return nil, err
		}
		if res, ok := ec.resolved[refKey{table: mp.m.TableName, id: raw.(uuid.UUID)}]; ok {
			return res.instance, nil
		}
		break
	}
	return reflect.New(mp.m.Type).Interface(), nil
}

// place 把顶层加载的实例放进缓存，已经存在的时候保留原来的
func (ec *ExecContext) place(m *model.Model, id uuid.UUID, instance any) {
	key := refKey{table: m.TableName, id: id}
	if _, ok := ec.resolved[key]; !ok {
		ec.resolved[key] = &resolution{instance: instance}
	}
	ec.ids[instance] = id
}

// identify 找到对象已有的 id：id 字段或者本次操作里面已经分配的 id
func (ec *ExecContext) identify(mp *mapping, obj any) (uuid.UUID, bool) {
	if mp.m.IDField != nil {
		id := ec.core.valCreator(obj, mp.m).Field(mp.m.IDField).(uuid.UUID)
		if id != uuid.Nil {
			return id, true
		}
	}
	id, ok := ec.ids[obj]
	return id, ok
}

// assign 给新对象分配 id，同步到 id 字段
// 没有连接的时候（Build）只记录在 ExecContext 里面，不修改对象
func (ec *ExecContext) assign(mp *mapping, obj any) (uuid.UUID, error) {
	if id, ok := ec.identify(mp, obj); ok {
		ec.ids[obj] = id
		return id, nil
	}
	id := uuid.New()
	if mp.m.IDField != nil && ec.conn != nil {
		if err := ec.core.valCreator(obj, mp.m).SetField(mp.m.IDField, id); err != nil {
			return uuid.Nil, err
		}
	}
	ec.ids[obj] = id
	return id, nil
}

// referenceID 保存引用字段的时候使用
// 被引用的对象还没有 id 的时候，先分配 id 再级联插入，
// 分配在插入之前，所以循环引用会直接拿到这个 id
func (ec *ExecContext) referenceID(mp *mapping, obj any) (uuid.UUID, error) {
	if id, ok := ec.identify(mp, obj); ok {
		return id, nil
	}
	if ec.conn == nil {
		return uuid.Nil, errDetached
	}
	id, err := ec.assign(mp, obj)
	if err != nil {
		return uuid.Nil, err
	}
	ec.core.logger.Debug("orm: cascade insert", slog.String("table", mp.m.TableName), slog.String("id", id.String()))
	b := newBuilder(ec.core)
	b.model = mp.m
	if err = b.buildInsert(mp, []record.Entity{record.NewUntyped(id, obj)}, nil, nil); err != nil {
		return uuid.Nil, err
	}
	if err = ec.execWrite(&b, "INSERT", mp, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// execWrite 执行写语句，然后让对应的行缓存失效
// ids 为空的时候整张表失效
func (ec *ExecContext) execWrite(b *builder, typ string, mp *mapping, ids ...uuid.UUID) error {
	_, err := ec.execBuilder(b, typ, mp, ids...)
	return err
}

func (ec *ExecContext) execBuilder(b *builder, typ string, mp *mapping, ids ...uuid.UUID) (sql.Result, error) {
	stmt, err := b.statement(ec)
	if err != nil {
		return nil, err
	}
	res, err := ec.exec(typ, mp.m, stmt)
	if err != nil {
		return nil, err
	}
	return res, ec.invalidate(mp.m.TableName, ids...)
}

func (ec *ExecContext) invalidate(table string, ids ...uuid.UUID) error {
	if ec.core.cache == nil {
		return nil
	}
	if len(ids) == 0 {
		return ec.core.cache.Invalidate(ec.ctx, table)
	}
	for _, id := range ids {
		if err := ec.core.cache.Delete(ec.ctx, table, id); err != nil {
			return err
		}
	}
	return nil
}
