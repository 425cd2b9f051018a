package schema_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/theplant/exprconv/schema"
)

type Audit struct {
	CreatedBy string
	createdAt time.Time
}

type hidden struct {
	Secret string
}

type Product struct {
	Audit
	hidden
	ID       uuid.UUID
	Name     string
	Price    *float64
	Tags     []string
	Variants []*Variant
	Raw      []byte
	internal int
}

type Variant struct {
	SKU string
}

type Shape interface {
	Area() float64
}

func TestParse(t *testing.T) {
	s, err := schema.Parse(reflect.TypeOf(&Product{}))
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(Product{}), s.Type)

	names := lo.Map(s.Fields, func(f *schema.Field, _ int) string { return f.Name })
	assert.Equal(t, []string{"Audit", "CreatedBy", "ID", "Name", "Price", "Tags", "Variants", "Raw"}, names)

	price := s.FieldsByName["Price"]
	require.NotNil(t, price)
	assert.Equal(t, reflect.TypeOf(float64(0)), price.IndirectType)

	createdBy := s.FieldsByName["CreatedBy"]
	require.NotNil(t, createdBy)
	assert.Equal(t, []int{0, 0}, createdBy.Index)

	assert.Nil(t, s.FieldsByName["Secret"])
	assert.Nil(t, s.FieldsByName["internal"])

	again, err := schema.Parse(reflect.TypeOf(Product{}))
	require.NoError(t, err)
	assert.Same(t, s, again)

	t.Run("interface", func(t *testing.T) {
		s, err := schema.Parse(reflect.TypeOf((*Shape)(nil)).Elem())
		require.NoError(t, err)
		assert.Empty(t, s.Fields)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := schema.Parse(reflect.TypeOf(42))
		require.ErrorContains(t, err, "not a struct or interface")

		_, err = schema.Parse(nil)
		require.Error(t, err)
	})
}

func TestFieldGet(t *testing.T) {
	s, err := schema.Parse(reflect.TypeOf(Product{}))
	require.NoError(t, err)

	p := &Product{Name: "lamp", Audit: Audit{CreatedBy: "ann"}}

	v, ok := s.FieldsByName["Name"].Get(reflect.ValueOf(p))
	require.True(t, ok)
	assert.Equal(t, "lamp", v.Interface())

	v, ok = s.FieldsByName["CreatedBy"].Get(reflect.ValueOf(*p))
	require.True(t, ok)
	assert.Equal(t, "ann", v.Interface())

	_, ok = s.FieldsByName["Name"].Get(reflect.ValueOf((*Product)(nil)))
	assert.False(t, ok)

	_, ok = s.FieldsByName["Name"].Get(reflect.ValueOf(Variant{}))
	assert.False(t, ok)
}

func TestTypeClassification(t *testing.T) {
	tests := []struct {
		name       string
		typ        reflect.Type
		text       bool
		collection bool
		dive       bool
		ordered    bool
	}{
		{name: "string", typ: reflect.TypeOf(""), text: true, ordered: true},
		{name: "string pointer", typ: reflect.TypeOf(lo.ToPtr("")), text: true, ordered: true},
		{name: "int", typ: reflect.TypeOf(0), ordered: true},
		{name: "time", typ: reflect.TypeOf(time.Time{}), ordered: true},
		{name: "bool", typ: reflect.TypeOf(true)},
		{name: "uuid", typ: reflect.TypeOf(uuid.UUID{})},
		{name: "bytes", typ: reflect.TypeOf([]byte{})},
		{name: "strings", typ: reflect.TypeOf([]string{}), collection: true},
		{name: "structs", typ: reflect.TypeOf([]*Variant{}), collection: true, dive: true},
		{name: "ints", typ: reflect.TypeOf([3]int{}), collection: true, dive: true},
		{name: "proto enum", typ: reflect.TypeOf(descriptorpb.FieldDescriptorProto_TYPE_DOUBLE), ordered: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, schema.IsText(tt.typ), "text")
			assert.Equal(t, tt.collection, schema.IsCollection(tt.typ), "collection")
			assert.Equal(t, tt.dive, schema.IsDivePoint(tt.typ), "dive")
			assert.Equal(t, tt.ordered, schema.IsOrdered(tt.typ), "ordered")
		})
	}
}
