package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSortFormats(t *testing.T) {
	Convey("SortFormats", t, func() {
		formats := []Format{
			{FormatID: "a", Quality: 1},
			{FormatID: "b", Quality: 3},
			{FormatID: "c", Quality: 1},
			{FormatID: "d", Quality: 3},
			{FormatID: "e", Quality: -2},
		}
		SortFormats(formats)

		ids := make([]string, 0, len(formats))
		for _, f := range formats {
			ids = append(ids, f.FormatID)
		}
		So(ids, ShouldResemble, []string{"b", "d", "a", "c", "e"})
	})
}

func TestHasVideo(t *testing.T) {
	Convey("HasVideo", t, func() {
		So(HasVideo(nil), ShouldBeFalse)
		So(HasVideo([]Format{{VideoCodec: CodecNone, AudioCodec: "mp4a"}}), ShouldBeFalse)
		So(HasVideo([]Format{{VideoCodec: CodecNone}, {VideoCodec: "avc1"}}), ShouldBeTrue)
	})
}

func TestErrors(t *testing.T) {
	Convey("Classified errors", t, func() {
		Convey("Should match their kind and cause", func() {
			cause := errors.New("exit status 1")
			err := fmt.Errorf("resolve: %w", NewError(ErrExtractionFailed, "", cause))
			So(errors.Is(err, ErrExtractionFailed), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(KindOf(err), ShouldEqual, ErrExtractionFailed)
		})
		Convey("Should never leak the cause in the user message", func() {
			err := NewError(ErrResolutionParse, "", errors.New("invalid character '<'"))
			So(UserMessage(err), ShouldEqual, "Failed to read media information")
			So(UserMessage(NewError(ErrUnsupportedContent, "Stories need a login", nil)), ShouldEqual, "Stories need a login")
			So(UserMessage(errors.New("boom")), ShouldEqual, "Something went wrong")
		})
		Convey("Should map to HTTP statuses", func() {
			So(HTTPStatus(NewError(ErrInvalidInput, "", nil)), ShouldEqual, http.StatusBadRequest)
			So(HTTPStatus(NewError(ErrUnsupportedContent, "", nil)), ShouldEqual, http.StatusUnprocessableEntity)
			So(HTTPStatus(NewError(ErrTimedOut, "", nil)), ShouldEqual, http.StatusGatewayTimeout)
			So(HTTPStatus(NewError(ErrNoLocators, "", nil)), ShouldEqual, http.StatusBadGateway)
			So(HTTPStatus(context.Canceled), ShouldEqual, 499)
			So(HTTPStatus(errors.New("x")), ShouldEqual, http.StatusInternalServerError)
		})
	})
}
