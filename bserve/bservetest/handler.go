package bservetest

import (
	"net/http"
	"net/http/httptest"

	"github.com/advdv/bfilter"
)

// CallHandler invokes a [bfilter.FilterHandler] with a buffered response writer and returns the recorded response
// together with the error the handler returned. A rejected request leaves the recorder empty.
func CallHandler(handler bfilter.FilterHandler, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	w := bfilter.NewResponseWriter(rec, -1)
	defer w.Free()

	if err := handler.ServeBHTTP(req.Context(), w, req); err != nil {
		return rec, err
	}

	if err := w.FlushBuffer(); err != nil {
		panic("bservetest: FlushBuffer failed: " + err.Error())
	}

	return rec, nil
}
