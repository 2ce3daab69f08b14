package merge_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurorace/refinery/internal/domain/merge"
	"github.com/neurorace/refinery/internal/domain/model"
)

func sample(player int, tsMS int64, attention, meditation float64, poorSignal int) model.RawSignalSample {
	return model.RawSignalSample{
		Player:          player,
		TimestampMS:     tsMS,
		ESense:          model.ESense{Attention: attention, Meditation: meditation},
		PoorSignalLevel: poorSignal,
		EEGPower:        model.BandPowers{Theta: 100, HighBeta: 50},
	}
}

func TestBuildTrusted(t *testing.T) {
	Convey("Given raw streams from a session", t, func() {
		Convey("When no signal samples exist", func() {
			events := []model.GameEvent{
				model.NewPlayerEvent("s1", model.EventCollision, 1000, 1),
			}
			records, err := merge.BuildTrusted(nil, events)

			Convey("Then the merge aborts", func() {
				So(records, ShouldBeNil)
				So(err, ShouldWrap, merge.ErrMissingInput)
			})
		})

		Convey("When samples from two players arrive out of order", func() {
			samples := []model.RawSignalSample{
				sample(1, 3000, 80, 60, 0),
				sample(1, 1000, 70, 50, 0),
				sample(2, 2000, 60, 40, 0),
			}
			records, err := merge.BuildTrusted(samples, nil)

			Convey("Then the result is sorted ascending by timestamp", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].Timestamp.Equal(time.UnixMilli(1000)), ShouldBeTrue)
				So(records[1].Timestamp.Equal(time.UnixMilli(2000)), ShouldBeTrue)
				So(records[2].Timestamp.Equal(time.UnixMilli(3000)), ShouldBeTrue)
				So(*records[1].Player, ShouldEqual, int32(2))
			})
		})

		Convey("When a sample has a degraded signal level", func() {
			samples := []model.RawSignalSample{
				sample(1, 1000, 80, 60, 0),
				sample(1, 2000, 80, 60, 200),
			}
			records, err := merge.BuildTrusted(samples, nil)

			Convey("Then only the clean reading is valid signal", func() {
				So(err, ShouldBeNil)
				So(records[0].IsSignalValid, ShouldBeTrue)
				So(records[1].IsSignalValid, ShouldBeFalse)
				So(*records[1].PoorSignalLevel, ShouldEqual, int32(200))
			})
		})

		Convey("When game events fold into the timeline", func() {
			samples := []model.RawSignalSample{
				sample(1, 1000, 80, 60, 0),
				sample(1, 3000, 80, 60, 0),
			}
			events := []model.GameEvent{
				model.NewPlayerEvent("s1", model.EventCollision, 2000, 1),
				model.NewRaceStarted("s1", 500, []model.UserRef{{PlayerID: 1, Email: "a@b.c"}}),
			}
			records, err := merge.BuildTrusted(samples, events)

			Convey("Then event rows interleave by timestamp", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 4)
				So(*records[0].GameEventType, ShouldEqual, string(model.EventRaceStarted))
				So(*records[2].GameEventType, ShouldEqual, string(model.EventCollision))
			})

			Convey("Then event rows are never valid signal", func() {
				So(err, ShouldBeNil)
				So(records[0].IsSignalValid, ShouldBeFalse)
				So(records[2].IsSignalValid, ShouldBeFalse)
				So(records[0].Attention, ShouldBeNil)
			})

			Convey("Then player attribution carries only when present", func() {
				So(err, ShouldBeNil)
				So(records[0].Player, ShouldBeNil)
				So(*records[2].Player, ShouldEqual, int32(1))
			})
		})

		Convey("When a sample and an event share a timestamp", func() {
			samples := []model.RawSignalSample{sample(1, 1000, 80, 60, 0)}
			events := []model.GameEvent{
				model.NewPlayerEvent("s1", model.EventOvertake, 1000, 1),
			}
			records, err := merge.BuildTrusted(samples, events)

			Convey("Then the signal row keeps its place before the event", func() {
				So(err, ShouldBeNil)
				So(records[0].GameEventType, ShouldBeNil)
				So(records[1].GameEventType, ShouldNotBeNil)
			})
		})
	})
}
