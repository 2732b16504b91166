package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserContext(t *testing.T) {
	cases := []struct {
		name   string
		target string
		header string
		want   string
		wantOK bool
	}{
		{name: "header", target: "/x", header: "u-1", want: "u-1", wantOK: true},
		{name: "query", target: "/x?userId=u-2", want: "u-2", wantOK: true},
		{name: "header wins", target: "/x?userId=u-2", header: "u-1", want: "u-1", wantOK: true},
		{name: "none", target: "/x", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			var ok bool
			h := UserContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got, ok = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("X-User-ID", tc.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("expected (%q,%v), got (%q,%v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}
