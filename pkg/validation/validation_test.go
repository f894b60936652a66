package validation

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type payload struct {
	Pin string
}

func TestValidate(t *testing.T) {
	Convey("Given the argument validator", t, func() {

		Convey("When validating an empty string", func() {
			err := Validate("", "Id")

			Convey("It should return an invalid argument error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
			})
			Convey("The error should name the argument", func() {
				var argErr *InvalidArgumentError
				So(errors.As(err, &argErr), ShouldBeTrue)
				So(argErr.Name, ShouldEqual, "Id")
				So(err.Error(), ShouldEqual, "Id cannot be null or empty")
			})
		})

		Convey("When validating nil", func() {
			err := Validate(nil, "carrierAccountConfirmation")

			Convey("It should fail", func() {
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When validating a typed nil pointer", func() {
			var p *payload
			err := Validate(p, "carrierAccountConfirmation")

			Convey("It should fail", func() {
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When validating a pointer to an empty struct", func() {
			err := Validate(&payload{}, "carrierAccountConfirmation")

			Convey("It should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When validating a non-empty string", func() {
			err := Validate("CARRIER-123", "carrierAccountId")

			Convey("It should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When validating a nil map", func() {
			var headers map[string]string
			err := Validate(headers, "headers")

			Convey("It should fail", func() {
				So(errors.Is(err, ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})
}
