package types_test

import (
	"testing"

	"github.com/okian/rift/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSourceValidation(t *testing.T) {
	Convey("Given the allowed event sources", t, func() {
		Convey("Then every enumerated source should validate", func() {
			for _, s := range types.Sources() {
				So(s.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then unknown sources should be rejected", func() {
			So(types.Source("salesforce").Valid(), ShouldBeFalse)
			So(types.Source("").Valid(), ShouldBeFalse)
			So(types.Source("Outreach").Valid(), ShouldBeFalse)
		})
	})
}

func TestEventTypeValidation(t *testing.T) {
	Convey("Given the allowed event types", t, func() {
		Convey("Then every enumerated type should validate", func() {
			for _, et := range types.EventTypes() {
				So(et.Valid(), ShouldBeTrue)
			}
		})

		Convey("Then unknown types should be rejected", func() {
			So(types.EventType("unknown_type").Valid(), ShouldBeFalse)
			So(types.EventType("").Valid(), ShouldBeFalse)
			So(types.EventType("CALL_DIAL").Valid(), ShouldBeFalse)
		})
	})
}
