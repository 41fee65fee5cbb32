package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tgsai/aiops-console/internal/domain/types"
)

func TestResourcesCounts(t *testing.T) {
	Convey("Given discovered resources", t, func() {
		r := types.Resources{
			EC2: []types.Instance{{ID: "i-1"}, {ID: "i-2"}},
			S3:  []types.Bucket{{Name: "logs"}},
		}

		Convey("Then counts should cover every service", func() {
			So(r.Counts(), ShouldResemble, map[string]int{"ec2": 2, "rds": 0, "eks": 0, "s3": 1, "dynamodb": 0})
		})
	})
}

func TestProvenanceEmbedding(t *testing.T) {
	Convey("Given a report with provenance", t, func() {
		report := types.CostReport{Provenance: types.Provenance{Source: types.SourceMock}, Environment: "dev"}

		Convey("When marshalled", func() {
			b, err := json.Marshal(report)
			So(err, ShouldBeNil)

			Convey("Then source is flattened and empty error omitted", func() {
				var m map[string]any
				So(json.Unmarshal(b, &m), ShouldBeNil)
				So(m["source"], ShouldEqual, "mock")
				_, hasErr := m["error"]
				So(hasErr, ShouldBeFalse)
			})
		})
	})
}
