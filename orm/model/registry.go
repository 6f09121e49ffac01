package model

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/coderi421/rowkit/orm/handler"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/google/uuid"
	"github.com/gotomicro/ekit/syncx"
)

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...Option) (*Model, error)
	// Handlers 解析字段时使用的 handler 注册中心
	Handlers() *handler.Registry
}

var typeUUID = reflect.TypeOf(uuid.UUID{})

// 这种包变量对测试不友好，缺乏隔离
//
//	var defaultRegistry = &registry{
//		models: make(map[reflect.Type]*model, 16),
//	}
type registry struct {
	// reflect.Type 可以解决命名冲突的问题
	models   syncx.Map[reflect.Type, *Model]
	handlers *handler.Registry
}

// NewRegistry creates a registry resolving field handlers through hs.
// A nil hs means the built-in handlers only.
func NewRegistry(hs *handler.Registry) Registry {
	if hs == nil {
		hs = handler.NewRegistry()
	}
	return &registry{handlers: hs}
}

func (r *registry) Handlers() *handler.Registry {
	return r.handlers
}

// Get 查找元数据模型
// If the model is not found in the registry, it is parsed and stored for future use.
func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	if m, ok := r.models.Load(typ); ok {
		return m, nil
	}
	return r.Register(val)
}

// Register parses val, applies opts and stores the result, replacing any
// model previously registered for the same type.
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}
	r.models.Store(reflect.TypeOf(val), m)
	return m, nil
}

// parseModel 解析结构体，生成字段和列的映射关系
// orm:"key1=value1,key2=value2,flag"
func (r *registry) parseModel(val any) (*Model, error) {
	typ := reflect.TypeOf(val)

	// Only support one-level pointer as input, e.g. *User does not support **User and User
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()
	numField := typ.NumField()

	m := &Model{
		Type:      typ,
		Fields:    make([]*Field, 0, numField),
		FieldMap:  make(map[string]*Field, numField),
		ColumnMap: make(map[string]*Field, numField),
		IDColumn:  defaultIDColumn,
	}

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)
		// 私有字段不处理
		if !fdStruct.IsExported() {
			continue
		}
		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}
		if _, ok := tags[tagIgnore]; ok {
			continue
		}
		if _, ok := tags[tagFlagIgnore]; ok {
			continue
		}

		f := &Field{
			ColName: tags[tagKeyColumn],
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Index:   i,
			Offset:  fdStruct.Offset,
			Options: tags,
		}

		if r.isIDField(fdStruct, tags) {
			if fdStruct.Type != typeUUID {
				return nil, fmt.Errorf("orm: id 字段 %s 必须是 uuid.UUID", fdStruct.Name)
			}
			if m.IDField != nil {
				return nil, fmt.Errorf("orm: 重复的 id 字段 %s", fdStruct.Name)
			}
			if f.ColName == "" {
				f.ColName = defaultIDColumn
			}
			m.IDField = f
			m.IDColumn = f.ColName
			continue
		}

		if err = r.resolveHandler(f); err != nil {
			return nil, err
		}
		m.Fields = append(m.Fields, f)
		m.FieldMap[f.GoName] = f
	}

	var err error
	m.IDHandler, err = r.handlers.Get(handler.FieldDescriptor{Name: m.IDColumn, Type: typeUUID})
	if err != nil {
		return nil, err
	}
	if err = m.rebuildColumns(); err != nil {
		return nil, err
	}

	// Get the table name from the input value if it implements TableName interface
	var tableName string
	if tn, ok := val.(TableName); ok {
		tableName = tn.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(typ.Name())
	}
	m.TableName = tableName
	return m, nil
}

func (r *registry) isIDField(fd reflect.StructField, tags map[string]string) bool {
	if _, ok := tags[tagFlagID]; ok {
		return true
	}
	return (fd.Name == "ID" || fd.Name == "Id") && fd.Type == typeUUID
}

// resolveHandler 选定字段的 handler 和列信息
// 引用字段在数据库里保存的是 uuid，所以用 uuid 的 handler
func (r *registry) resolveHandler(f *Field) error {
	fd := f.Descriptor()
	if _, ok := f.Options[tagFlagRef]; ok {
		if f.Type.Kind() != reflect.Pointer || f.Type.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("orm: 引用字段 %s 必须是结构体指针", f.GoName)
		}
		f.Reference = true
		f.RefType = f.Type.Elem()
		fd = handler.FieldDescriptor{Name: f.GoName, Type: typeUUID}
		if f.ColName == "" {
			f.ColName = underscoreName(f.GoName) + "_id"
		}
	}
	if f.ColName == "" {
		// If the colName is "", user the default  ItemId -> item_id
		f.ColName = underscoreName(f.GoName)
	}

	h, err := r.handlers.Get(fd)
	if err != nil {
		return err
	}
	f.Handler = h
	f.SQLType = f.Options[tagKeyType]
	if f.SQLType == "" {
		f.SQLType = h.SQLType()
	}
	return nil
}

// parseTag parses the given struct tag and returns a map of key-value pairs.
// Bare flags (id, ref, json, transient, -) map to an empty value.
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		// Return an empty map so that the caller doesn't need to check for nil
		return map[string]string{}, nil
	}

	res := make(map[string]string, 2)
	pairs := strings.Split(ormTag, ",")
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 1 {
			switch kv[0] {
			case tagFlagID, tagFlagRef, tagFlagJSON, tagFlagIgnore, tagIgnore:
				res[kv[0]] = ""
				continue
			}
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[kv[0]] = kv[1]
	}
	return res, nil
}

func (m *Model) rebuildColumns() error {
	cols := make(map[string]*Field, len(m.Fields))
	for _, f := range m.Fields {
		if f.ColName == m.IDColumn {
			return fmt.Errorf("orm: 列 %s 和主键冲突", f.ColName)
		}
		if _, ok := cols[f.ColName]; ok {
			return fmt.Errorf("orm: 重复的列 %s", f.ColName)
		}
		cols[f.ColName] = f
	}
	m.ColumnMap = cols
	return nil
}

// underscoreName 驼峰转下划线
// 连续的大写字母当作一个缩写处理
// UserName -> user_name, UserID -> user_id, HTTPServer -> http_server
func underscoreName(name string) string {
	runes := []rune(name)
	var buf []rune
	for i, v := range runes {
		if unicode.IsUpper(v) {
			if i > 0 {
				prevLower := !unicode.IsUpper(runes[i-1]) && runes[i-1] != '_'
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					buf = append(buf, '_')
				}
			}
			buf = append(buf, unicode.ToLower(v))
		} else {
			buf = append(buf, v)
		}
	}
	return string(buf)
}

// WithTableName is a Option function that sets the table name for a Model.
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithColumnName sets the column name for a specific Field in a model.
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		if model.IDField != nil && model.IDField.GoName == field {
			model.IDField.ColName = columnName
			model.IDColumn = columnName
			return model.rebuildColumns()
		}
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		fd.ColName = columnName
		return model.rebuildColumns()
	}
}
