//go:build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "homefinder/internal/adapters/http_server"
	"homefinder/internal/adapters/osrm"
	"homefinder/internal/app"
	"homefinder/internal/domain"
	mysqlrepo "homefinder/internal/storage/mysql"
)

// ---------- helpers ----------
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=$PWD/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- fake routing service ----------

// tableServer answers OSRM table requests; distance grows with the source index.
func tableServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var sources, dests int
		for _, kv := range strings.Split(r.URL.RawQuery, "&") {
			k, v, _ := strings.Cut(kv, "=")
			switch k {
			case "sources":
				sources = len(strings.Split(v, ";"))
			case "destinations":
				dests = len(strings.Split(v, ";"))
			}
		}
		dist := make([][]float64, sources)
		dur := make([][]float64, sources)
		for i := range dist {
			dist[i] = make([]float64, dests)
			dur[i] = make([]float64, dests)
			for j := range dist[i] {
				dist[i][j] = float64(1000 * (i + 1))
				dur[i][j] = float64(60 * (i + 1))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "Ok", "distances": dist, "durations": dur})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// ---------- the test ----------
func TestHTTP_EndToEnd_FindBest(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=homefinder",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/homefinder?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	var firstID int64
	for i, p := range []domain.Property{
		{HouseName: "Green Valley Apartment", Address: "123 Lake View Road, Dhaka", Price: 12000, Rooms: 2, Lat: pfloat(23.8103), Lon: pfloat(90.4125)},
		{HouseName: "Sunset Residency", Address: "56 Gulshan Ave, Dhaka", Price: 20000, Rooms: 3, Lat: pfloat(23.7808), Lon: pfloat(90.4217)},
		{HouseName: "Urban Nest", Address: "88 Bashundhara R/A, Dhaka", Price: 18000, Rooms: 2, Lat: pfloat(23.8223), Lon: pfloat(90.4242)},
	} {
		id, err := repo.UpsertProperty(ctx, p)
		if err != nil {
			t.Fatalf("UpsertProperty: %v", err)
		}
		if i == 0 {
			firstID = id
		}
	}

	var calls atomic.Int32
	routing := tableServer(t, &calls)
	client, err := osrm.New(routing.URL, "driving", osrm.MinInterval)
	if err != nil {
		t.Fatalf("osrm.New: %v", err)
	}

	srv := server.New(0)
	srv.MountHandlers(server.NewHandlers(app.NewSelectionService(repo, client, 100, 500)))
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	body := `{"pois":[{"lat":23.8,"lon":90.4,"weight":2},{"lat":"x","lon":1},{"lat":23.75,"lon":90.39}],"filters":{"maxPrice":19000}}`
	post := func() (int64, float64) {
		res, err := http.Post(ts.URL+"/v1/selections/best", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		var out struct {
			Property *struct {
				ID int64 `json:"id"`
			} `json:"property"`
			Score      *float64 `json:"score"`
			Candidates []any    `json:"candidates"`
		}
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Property == nil || out.Score == nil || len(out.Candidates) != 2 {
			t.Fatalf("unexpected body: %+v", out)
		}
		return out.Property.ID, *out.Score
	}

	id, score := post()
	if id != firstID || score != 3000 {
		t.Fatalf("expected property %d with score 3000, got %d / %v", firstID, id, score)
	}

	// identical request is answered from the matrix cache
	if id2, score2 := post(); id2 != id || score2 != score || calls.Load() != 1 {
		t.Fatalf("expected cached answer, got %d / %v after %d routing calls", id2, score2, calls.Load())
	}
}
