package semantic

import "semcube/internal/domain"

// radiologyCube builds the cube used across the package tests. It mirrors the
// shipped RadiologyAudits declaration in reduced form.
func radiologyCube() *domain.CubeDefinition {
	return &domain.CubeDefinition{
		Name:           "RadiologyAudits",
		SourceRelation: "SELECT * FROM radiology_audits",
		Measures: map[string]domain.MeasureDefinition{
			"count": {
				Name:         "count",
				Aggregation:  domain.AggregationCount,
				Title:        "Total Audits",
				DrillMembers: []string{"caseId", "modality", "reportDate"},
			},
			"avgQualityScore": {
				Name:             "avgQualityScore",
				Aggregation:      domain.AggregationAverage,
				SourceExpression: "${CUBE}.quality_score",
				Title:            "Average Quality Score",
			},
			"cat5Count": {
				Name:         "cat5Count",
				Aggregation:  domain.AggregationCount,
				Filters:      []string{"${CUBE}.final_output = 'CAT5'"},
				Title:        "CAT5 Ratings",
				DrillMembers: []string{"caseId", "count"},
			},
			"highSafetyRate": {
				Name:             "highSafetyRate",
				Aggregation:      domain.AggregationNumber,
				SourceExpression: "ROUND(COUNT(CASE WHEN ${CUBE}.safety_score > 80 THEN 1 END) * 100.0 / COUNT(*), 1)",
				Format:           "percent",
			},
		},
		Dimensions: map[string]domain.DimensionDefinition{
			"id":       {Name: "id", Type: domain.ValueTypeNumber, SourceExpression: "${CUBE}.id", PrimaryKey: true},
			"caseId":   {Name: "caseId", Type: domain.ValueTypeString, SourceExpression: "${CUBE}.case_id"},
			"modality": {Name: "modality", Type: domain.ValueTypeString, SourceExpression: "${CUBE}.modality", Title: "Modality"},
			"age":      {Name: "age", Type: domain.ValueTypeNumber, SourceExpression: "${CUBE}.age"},
			"reportDate": {
				Name: "reportDate", Type: domain.ValueTypeTime,
				SourceExpression: "${CUBE}.report_date", Title: "Report Date",
			},
		},
		Segments: map[string]domain.SegmentDefinition{
			"ctScans":  {Name: "ctScans", Predicate: "${CUBE}.modality = 'CT'"},
			"mriScans": {Name: "mriScans", Predicate: "${CUBE}.modality = 'MRI'"},
		},
		Joins: map[string]domain.JoinDefinition{},
	}
}
