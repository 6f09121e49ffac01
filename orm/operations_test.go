package orm

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coderi421/rowkit/orm/cache/memory"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type Customer struct {
	ID   uuid.UUID
	Name string
}

// countSelects 统计真正发到数据库的 SELECT
func countSelects(n *int64) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, qc *QueryContext) *QueryResult {
			if qc.Type == "SELECT" {
				atomic.AddInt64(n, 1)
			}
			return next(ctx, qc)
		}
	}
}

type OperationsSuite struct {
	suite.Suite
	db      *DB
	selects int64
}

func (s *OperationsSuite) SetupTest() {
	s.selects = 0
	s.db = memoryDB(s.T(), DBWithMiddlewares(countSelects(&s.selects)))
	ctx := context.Background()
	s.Require().NoError(CreateTable[Customer](ctx, s.db))
	s.Require().NoError(CreateTable[Person](ctx, s.db))
}

func (s *OperationsSuite) TestAlice() {
	t := s.T()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, Save(ctx, s.db, record.New(id, &Customer{Name: "Alice"})))

	rec, err := Load[Customer](ctx, s.db, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID())
	assert.Equal(t, "Alice", rec.Value().Name)
	// id 字段和 record 的 id 同步
	assert.Equal(t, id, rec.Value().ID)
}

func (s *OperationsSuite) TestCreateTable_Duplicate() {
	err := CreateTable[Customer](context.Background(), s.db)
	assert.ErrorIs(s.T(), err, ErrDuplicateTable)
}

func (s *OperationsSuite) TestTables() {
	t := s.T()
	ctx := context.Background()
	tables, err := ListTables(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "person"}, tables)

	ok, err := TableExists(ctx, s.db, "customer")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TableExists(ctx, s.db, "order")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = TableExists(ctx, s.db, "")
	assert.ErrorIs(t, err, ErrNullTable)

	tbl, err := TableOf[Person](s.db)
	require.NoError(t, err)
	assert.Equal(t, "person", tbl.Name)
	assert.Equal(t, "id", tbl.Columns[0].Name)
}

func (s *OperationsSuite) TestInsertLoadSave() {
	t := s.T()
	ctx := context.Background()
	c := &Customer{Name: "Tom"}
	rec, err := Insert(ctx, s.db, c)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, rec.ID())
	assert.Equal(t, rec.ID(), c.ID)

	// 同一个 id 再次插入违反主键约束
	_, err = Insert(ctx, s.db, c)
	assert.Error(t, err)

	// Save 按 id 更新
	require.NoError(t, Save(ctx, s.db, record.New(rec.ID(), &Customer{Name: "Jerry"})))
	got, err := Load[Customer](ctx, s.db, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jerry", got.Value().Name)

	_, err = Load[Customer](ctx, s.db, uuid.New())
	assert.ErrorIs(t, err, ErrNoRows)
}

func (s *OperationsSuite) TestFindDelete() {
	t := s.T()
	ctx := context.Background()
	for i, name := range []string{"Tom", "Jerry", "Alice"} {
		_, err := Insert(ctx, s.db, &Person{Name: name, Age: 10 * (i + 1)})
		require.NoError(t, err)
	}

	all, err := Find[Person](ctx, s.db, Condition{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	adults, err := Find[Person](ctx, s.db, C("age").GE(18).And(C("age").LT(65)))
	require.NoError(t, err)
	names := make([]string, 0, len(adults))
	for _, rec := range adults {
		names = append(names, rec.Value().Name)
	}
	assert.ElementsMatch(t, []string{"Jerry", "Alice"}, names)

	none, err := Find[Person](ctx, s.db, In("name"))
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := Delete[Person](ctx, s.db, C("age").LT(18))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := NewSelector[Person](s.db).Where(C("name").EQ("Alice")).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, p.Age)

	affected, err := NewUpdater[Person](s.db).Set(Assign("Age", C("Age").Add(1))).
		Where(C("name").EQ("Alice")).Exec(ctx).RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	p, err = RawQuery[Person](s.db, "SELECT * FROM `person` WHERE `name` = ?", "Alice").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 31, p.Age)
}

func (s *OperationsSuite) TestCascadeInsert() {
	t := s.T()
	ctx := context.Background()
	jerry := &Person{Name: "Jerry"}
	rec, err := Insert(ctx, s.db, &Person{Name: "Tom", Friend: jerry})
	require.NoError(t, err)
	// 被引用的对象先被插入，拿到了 id
	require.NotEqual(t, uuid.Nil, jerry.ID)

	got, err := Load[Person](ctx, s.db, rec.ID())
	require.NoError(t, err)
	require.NotNil(t, got.Value().Friend)
	assert.Equal(t, jerry.ID, got.Value().Friend.ID)
	assert.Equal(t, "Jerry", got.Value().Friend.Name)
	assert.Nil(t, got.Value().Friend.Friend)
}

func (s *OperationsSuite) TestCyclicReference() {
	t := s.T()
	ctx := context.Background()

	// 引用自己
	narcissus := &Person{Name: "Narcissus"}
	narcissus.Friend = narcissus
	rec, err := Insert(ctx, s.db, narcissus)
	require.NoError(t, err)
	got, err := Load[Person](ctx, s.db, rec.ID())
	require.NoError(t, err)
	assert.Same(t, got.Value(), got.Value().Friend)

	// 两个对象互相引用
	tom := &Person{Name: "Tom"}
	jerry := &Person{Name: "Jerry", Friend: tom}
	tom.Friend = jerry
	rec, err = Insert(ctx, s.db, tom)
	require.NoError(t, err)
	got, err = Load[Person](ctx, s.db, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jerry", got.Value().Friend.Name)
	assert.Same(t, got.Value(), got.Value().Friend.Friend)
}

func (s *OperationsSuite) TestFind_CyclicReference() {
	t := s.T()
	ctx := context.Background()
	tom := &Person{Name: "Tom"}
	jerry := &Person{Name: "Jerry", Friend: tom}
	tom.Friend = jerry
	_, err := Insert(ctx, s.db, tom)
	require.NoError(t, err)

	// 先读到的那一行会加载另外一个对象，读到另外一行的时候复用它
	before := atomic.LoadInt64(&s.selects)
	recs, err := Find[Person](ctx, s.db, Condition{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), atomic.LoadInt64(&s.selects)-before)
	assert.Same(t, recs[0].Value(), recs[1].Value().Friend)
	assert.Same(t, recs[1].Value(), recs[0].Value().Friend)

	before = atomic.LoadInt64(&s.selects)
	people, err := NewSelector[Person](s.db).GetMulti(ctx)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, int64(2), atomic.LoadInt64(&s.selects)-before)
	assert.Same(t, people[0], people[1].Friend)
	assert.Same(t, people[1], people[0].Friend)
}

func (s *OperationsSuite) TestSharedReference() {
	t := s.T()
	ctx := context.Background()
	shared := &Person{Name: "Spike"}
	_, err := Insert(ctx, s.db, &Person{Name: "Tom", Friend: shared})
	require.NoError(t, err)
	_, err = Insert(ctx, s.db, &Person{Name: "Jerry", Friend: shared})
	require.NoError(t, err)

	before := atomic.LoadInt64(&s.selects)
	recs, err := Find[Person](ctx, s.db, C("name").In("Tom", "Jerry"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// 一次 Find 加上一次加载 Spike
	assert.Equal(t, int64(2), atomic.LoadInt64(&s.selects)-before)
	assert.Same(t, recs[0].Value().Friend, recs[1].Value().Friend)

	_, err = withExec(ctx, s.db, func(ec *ExecContext) (struct{}, error) {
		mp, err := ec.core.mappingOf(&Person{})
		require.NoError(t, err)
		first, err := ec.resolve(mp, shared.ID)
		require.NoError(t, err)
		second, err := ec.resolve(mp, shared.ID)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, ec.Loads())
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func (s *OperationsSuite) TestTransaction() {
	t := s.T()
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.RollbackIfNotCommit() }()

	rec, err := Insert(ctx, tx, &Customer{Name: "Tom"})
	require.NoError(t, err)
	got, err := Load[Customer](ctx, tx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Tom", got.Value().Name)
	require.NoError(t, tx.Commit())

	got, err = Load[Customer](ctx, s.db, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Tom", got.Value().Name)
}

func TestOperations(t *testing.T) {
	suite.Run(t, new(OperationsSuite))
}

func TestRowCache(t *testing.T) {
	var selects int64
	db := memoryDB(t,
		DBWithMiddlewares(countSelects(&selects)),
		DBWithRowCache(memory.NewStore(time.Minute)))
	ctx := context.Background()
	require.NoError(t, CreateTable[Customer](ctx, db))

	rec, err := Insert(ctx, db, &Customer{Name: "Tom"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := Load[Customer](ctx, db, rec.ID())
		require.NoError(t, err)
		assert.Equal(t, "Tom", got.Value().Name)
	}
	// 只有第一次到了数据库
	assert.Equal(t, int64(1), atomic.LoadInt64(&selects))

	// 写操作之后缓存失效
	require.NoError(t, Save(ctx, db, record.New(rec.ID(), &Customer{Name: "Jerry"})))
	got, err := Load[Customer](ctx, db, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jerry", got.Value().Name)
	assert.Equal(t, int64(2), atomic.LoadInt64(&selects))

	// Updater 不知道更新了哪些行，整张表失效
	require.NoError(t, NewUpdater[Customer](db).Set(Assign("Name", "Spike")).Exec(ctx).Err())
	got, err = Load[Customer](ctx, db, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "Spike", got.Value().Name)
	assert.Equal(t, int64(3), atomic.LoadInt64(&selects))

	// 事务里面不读缓存
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = Load[Customer](ctx, tx, rec.ID())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(4), atomic.LoadInt64(&selects))
}

func TestRowCache_Transaction(t *testing.T) {
	db := memoryDB(t, DBWithRowCache(memory.NewStore(time.Minute)))
	ctx := context.Background()
	require.NoError(t, CreateTable[Customer](ctx, db))
	rec, err := Insert(ctx, db, &Customer{Name: "Tom"})
	require.NoError(t, err)

	load := func() string {
		got, err := Load[Customer](ctx, db, rec.ID())
		require.NoError(t, err)
		return got.Value().Name
	}

	// 提交之前事务外面读到的还是旧数据，提交之后缓存失效
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, tx, record.New(rec.ID(), &Customer{Name: "Jerry"})))
	assert.Equal(t, "Tom", load())
	require.NoError(t, tx.Commit())
	assert.Equal(t, "Jerry", load())

	// 回滚之后缓存里面的数据仍然有效
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewUpdater[Customer](tx).Set(Assign("Name", "Spike")).Exec(ctx).Err())
	require.NoError(t, tx.Rollback())
	assert.Equal(t, "Jerry", load())
	require.NoError(t, tx.RollbackIfNotCommit())
}

// Extreme 每一种常见的列类型各一个字段
type Extreme struct {
	ID uuid.UUID
	S  string
	I  int64
	U  uint64
	F  float64
	B  []byte
	P  *int
}

func TestOperations_BoundaryValues(t *testing.T) {
	zero := 0
	testCases := []struct {
		name string
		val  *Extreme
	}{
		{name: "zero", val: &Extreme{S: "", B: []byte{}, P: &zero}},
		{name: "null", val: &Extreme{}},
		{
			name: "max",
			val: &Extreme{S: "Tom", I: math.MaxInt64, U: math.MaxUint64,
				F: math.MaxFloat64, B: []byte{0xff}, P: &zero},
		},
		{
			name: "min",
			val:  &Extreme{I: math.MinInt64, F: -math.MaxFloat64, B: []byte{0}},
		},
		{name: "above max int64", val: &Extreme{U: math.MaxInt64 + 1}},
		{name: "max int64 as uint64", val: &Extreme{U: math.MaxInt64, F: math.SmallestNonzeroFloat64}},
	}

	db := memoryDB(t)
	ctx := context.Background()
	require.NoError(t, CreateTable[Extreme](ctx, db))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Insert(ctx, db, tc.val)
			require.NoError(t, err)
			got, err := Load[Extreme](ctx, db, rec.ID())
			require.NoError(t, err)
			assert.Equal(t, tc.val, got.Value())

			// 无符号整数也可以作为查询条件
			recs, err := Find[Extreme](ctx, db, C("u").EQ(tc.val.U).And(C("id").EQ(rec.ID())))
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, tc.val.U, recs[0].Value().U)
		})
	}
}
