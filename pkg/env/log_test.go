package env

import (
	"errors"
	golog "log"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"
)

type testHandler struct {
	record *log15.Record
}

func (t *testHandler) Log(r *log15.Record) error {
	t.record = r
	return nil
}

func TestLogPkgIsBridged(t *testing.T) {
	Convey("Given a new environment", t, func() {
		handler := &testHandler{}
		Log.SetHandler(handler)

		Convey("When a log message is created using the go log pkg", func() {
			msg := "Log message"
			golog.Print(msg)

			Convey("The record should be received by the log15 handler", func() {
				So(handler.record, ShouldNotBeNil)
			})

			Convey("The record lvl should be Info", func() {
				So(handler.record.Lvl, ShouldEqual, log15.LvlInfo)
			})

			Convey("The actual message should be present without trailing newline", func() {
				var actual string
				for i, c := range handler.record.Ctx {
					if key, ok := c.(string); !ok {
						continue
					} else if key == "message" {
						actual = handler.record.Ctx[i+1].(string)
					}
				}
				So(actual, ShouldEqual, msg)
			})
		})
	})
}

type TestStringer string

func (t TestStringer) String() string {
	return string(t)
}

func TestDaemonLogFmt(t *testing.T) {
	Convey("Given a handler with the DaemonLog format", t, func() {
		handler := &testHandler{}
		Log.SetHandler(handler)

		Convey("Given a log message with a log level", func() {
			Convey("When logging a log level Crit", func() {
				Log.Crit("crit message")

				Convey("The log message should be prefixed with SD_CRIT", func() {
					logStr := string(DaemonFormat().Format(handler.record))
					So(logStr, ShouldStartWith, sdCrit)
				})
			})
			Convey("When logging a log level Error", func() {
				Log.Error("error message")

				Convey("The log message should be prefixed with SD_ERR", func() {
					logStr := string(DaemonFormat().Format(handler.record))
					So(logStr, ShouldStartWith, sdErr)
				})
			})
			Convey("When logging a log level Warn", func() {
				Log.Warn("warn message")

				Convey("The log message should be prefixed with SD_WARNING", func() {
					logStr := string(DaemonFormat().Format(handler.record))
					So(logStr, ShouldStartWith, sdWarning)
				})
			})
			Convey("When logging a log level Info", func() {
				Log.Info("info message")

				Convey("The log message should be prefixed with SD_INFO", func() {
					logStr := string(DaemonFormat().Format(handler.record))
					So(logStr, ShouldStartWith, sdInfo)
				})
			})
			Convey("When logging a log level Debug", func() {
				Log.Debug("debug message")

				Convey("The log message should be prefixed with SD_DEBUG", func() {
					logStr := string(DaemonFormat().Format(handler.record))
					So(logStr, ShouldStartWith, sdDebug)
				})
			})
		})

		Convey("When logging a complex string", func() {
			str := "this\\should\tbe\r\nescaped\""
			Log.Debug("escape", log15.Ctx{"this": str})

			Convey("The log message should be properly escaped", func() {
				expect := "this=\"this\\\\should\\tbe\\r\\nescaped\\\"\""
				logStr := string(DaemonFormat().Format(handler.record))
				So(logStr, ShouldContainSubstring, expect)
			})
		})

		Convey("When logging a complex Stringer", func() {
			str := TestStringer("this\\should\tbe\r\nescaped\"")
			Log.Debug("escape", log15.Ctx{"this": str})

			Convey("The log message should be properly escaped", func() {
				expect := "this=\"this\\\\should\\tbe\\r\\nescaped\\\"\""
				logStr := string(DaemonFormat().Format(handler.record))
				So(logStr, ShouldContainSubstring, expect)
			})
		})

		Convey("When logging a complex error", func() {
			err := errors.New("this\\should\tbe\r\nescaped\"")
			Log.Debug("escape", log15.Ctx{"err": err})

			Convey("The log message should be properly escaped", func() {
				expect := "err=\"this\\\\should\\tbe\\r\\nescaped\\\"\""
				logStr := string(DaemonFormat().Format(handler.record))
				So(logStr, ShouldContainSubstring, expect)
			})
		})

		Convey("When logging credentials", func() {
			Log.Info("token fetched", log15.Ctx{
				"clientID":     "AbC",
				"accessToken":  "A21AA",
				"clientSecret": "EEE",
			})

			Convey("The secret values should be redacted", func() {
				logStr := string(DaemonFormat().Format(handler.record))
				So(logStr, ShouldContainSubstring, "clientID=AbC")
				So(logStr, ShouldContainSubstring, "accessToken="+redacted)
				So(logStr, ShouldContainSubstring, "clientSecret="+redacted)
				So(logStr, ShouldNotContainSubstring, "A21AA")
				So(logStr, ShouldNotContainSubstring, "EEE")
			})
		})
	})
}

func TestSetLevel(t *testing.T) {
	Convey("Given the root logger", t, func() {
		Convey("When setting a valid level", func() {
			err := SetLevel("DEBUG")

			Convey("It should succeed", func() {
				So(err, ShouldBeNil)
			})
		})
		Convey("When setting an unknown level", func() {
			err := SetLevel("verbose")

			Convey("It should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
