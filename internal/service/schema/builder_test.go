package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcube/internal/declarative"
	"semcube/internal/domain"
)

func ordersDoc() declarative.CubeDoc {
	return declarative.CubeDoc{
		APIVersion: declarative.SupportedAPIVersion,
		Kind:       declarative.KindCube,
		Metadata:   declarative.ObjectMeta{Name: "Orders"},
		SourceFile: "orders.yaml",
		Spec: declarative.CubeSpec{
			SQL: "SELECT * FROM orders",
			Measures: map[string]declarative.MeasureSpec{
				"count": {Type: "count", DrillMembers: []string{"id", "status"}},
				"avgAmount": {
					Type: "avg",
					SQL:  "${CUBE}.amount",
				},
			},
			Dimensions: map[string]declarative.DimensionSpec{
				"id":     {Type: "number", SQL: "${CUBE}.id", PrimaryKey: true},
				"status": {Type: "string", SQL: "${CUBE}.status"},
			},
			Segments: map[string]declarative.SegmentSpec{
				"active": {SQL: "${CUBE}.status = 'active'"},
			},
		},
	}
}

func requireKind(t *testing.T, err error, kind domain.ValidationKind) {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, kind, verr.Kind)
}

func TestLoadBuildsCube(t *testing.T) {
	result := Load([]declarative.CubeDoc{ordersDoc()}, Policy{})
	require.Empty(t, result.Failed)
	require.Equal(t, 1, result.Snapshot.Len())

	cube, err := result.Snapshot.Cube("Orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", cube.SourceRelation)
	assert.Len(t, cube.Measures, 2)
	assert.Len(t, cube.Dimensions, 2)

	pk, ok := cube.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "id", pk.Name)
}

func TestLoadRejectsDanglingDrillMember(t *testing.T) {
	doc := ordersDoc()
	m := doc.Spec.Measures["count"]
	m.DrillMembers = []string{"nonexistent"}
	doc.Spec.Measures["count"] = m

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationDanglingReference)
	assert.Equal(t, 0, result.Snapshot.Len())
}

func TestLoadRejectsMeasureDimensionClash(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Measures["status"] = declarative.MeasureSpec{Type: "count"}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationDuplicateName)
}

func TestLoadRejectsDuplicateCubeNames(t *testing.T) {
	a, b := ordersDoc(), ordersDoc()
	b.SourceFile = "orders_copy.yaml"

	result := Load([]declarative.CubeDoc{a, b}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationDuplicateName)
	assert.Equal(t, 0, result.Snapshot.Len())
}

func TestLoadRejectsInvalidAggregationKind(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Measures["weird"] = declarative.MeasureSpec{Type: "median", SQL: "${CUBE}.amount"}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationInvalidAggregationKind)
}

func TestLoadRejectsFiltersOnNumberMeasure(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Measures["cancelRate"] = declarative.MeasureSpec{
		Type:    "number",
		SQL:     "SUM(${CUBE}.cancelled) * 100.0 / COUNT(*)",
		Filters: []declarative.FilterSpec{{SQL: "${CUBE}.status = 'cancelled'"}},
	}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationInvalidInput)
}

func TestLoadRejectsInvalidValueType(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Dimensions["weird"] = declarative.DimensionSpec{Type: "uuid", SQL: "${CUBE}.x"}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationInvalidValueType)
}

func TestPrimaryKeyPolicy(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Dimensions["id"] = declarative.DimensionSpec{Type: "number", SQL: "${CUBE}.id"}

	// Zero primary keys is permitted by default.
	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Empty(t, result.Failed)

	// ...and rejected when the policy requires one.
	result = Load([]declarative.CubeDoc{doc}, Policy{RequirePrimaryKey: true})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationMissingPrimaryKey)
}

func TestLoadRejectsMultiplePrimaryKeys(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Dimensions["status"] = declarative.DimensionSpec{Type: "string", SQL: "${CUBE}.status", PrimaryKey: true}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationMissingPrimaryKey)
}

func TestLoadRejectsDanglingJoinTarget(t *testing.T) {
	doc := ordersDoc()
	doc.Spec.Joins = map[string]declarative.JoinSpec{
		"Customers": {Relationship: "belongsTo", SQL: "${CUBE}.customer_id = Customers.id"},
	}

	result := Load([]declarative.CubeDoc{doc}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationDanglingReference)
}

func TestLoadIsolatesFailures(t *testing.T) {
	bad := ordersDoc()
	bad.Metadata.Name = "Broken"
	bad.SourceFile = "broken.yaml"
	bad.Spec.Measures["x"] = declarative.MeasureSpec{Type: "bogus"}

	result := Load([]declarative.CubeDoc{ordersDoc(), bad}, Policy{})
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Broken", result.Failed[0].Cube)
	assert.Equal(t, []string{"Orders"}, result.Snapshot.Names())
}

func TestLoadRejectsRelationshipKind(t *testing.T) {
	customers := ordersDoc()
	customers.Metadata.Name = "Customers"
	doc := ordersDoc()
	doc.Spec.Joins = map[string]declarative.JoinSpec{
		"Customers": {Relationship: "oneToMany", SQL: "${CUBE}.customer_id = Customers.id"},
	}

	result := Load([]declarative.CubeDoc{doc, customers}, Policy{})
	require.Len(t, result.Failed, 1)
	requireKind(t, result.Failed[0].Err, domain.ValidationInvalidRelationship)
}
