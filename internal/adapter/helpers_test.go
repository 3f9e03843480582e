package adapter

import (
	"net/http/httptest"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

var fixedNow = time.Date(2026, 2, 17, 15, 30, 0, 0, time.UTC)

func testOptions(srv *httptest.Server) Options {
	return Options{
		Client:  srv.Client(),
		Timeout: 2 * time.Second,
		Now:     func() time.Time { return fixedNow },
	}
}

func testOrg(name, provider, id string) model.Organization {
	return model.Organization{Name: name, Provider: provider, ID: id}
}
