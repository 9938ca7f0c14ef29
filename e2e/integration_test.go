//go:build e2e

// Package e2e contains end-to-end integration tests against a real Redis
// server and a real Firebase Realtime Database.
//
// Run with: go test -tags=e2e -v ./e2e/...
//
// Configuration comes from the environment:
//
//	ESPALIER_REDIS_ADDR     Redis address (default "localhost:6379")
//	ESPALIER_FIREBASE_URL   Realtime Database URL (required)
//	ESPALIER_FIREBASE_CREDS path to a service-account credentials file
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/espalier/document"
	"github.com/jacentio/espalier/fireview"
	"github.com/jacentio/espalier/redisstore"
)

var (
	testID string

	primary *redisstore.Store
	view    *fireview.Store

	registry *document.Registry
)

func TestMain(m *testing.M) {
	databaseURL := os.Getenv("ESPALIER_FIREBASE_URL")
	if databaseURL == "" {
		fmt.Println("ESPALIER_FIREBASE_URL not set, skipping e2e tests")
		os.Exit(0)
	}

	// Unique per run so concurrent runs don't collide.
	testID = uuid.New().String()[:8]
	fmt.Printf("Test ID: %s\n", testID)

	primary = redisstore.New(redisstore.Config{
		Addr: os.Getenv("ESPALIER_REDIS_ADDR"),
	})

	ctx := context.Background()
	var err error
	view, err = fireview.New(ctx, fireview.Config{
		DatabaseURL:     databaseURL,
		CredentialsFile: os.Getenv("ESPALIER_FIREBASE_CREDS"),
	}, nil)
	if err != nil {
		fmt.Printf("Failed to connect to Firebase: %v\n", err)
		os.Exit(1)
	}

	registry = document.NewRegistry()
	registry.Connect(document.Connections{Primary: primary, View: view})

	code := m.Run()

	view.Close()
	if err := primary.Close(); err != nil {
		fmt.Printf("Warning: failed to close redis client: %v\n", err)
	}

	os.Exit(code)
}

// container returns a run-scoped container path so test data never mixes
// with another run's.
func container(name string) string {
	return fmt.Sprintf("e2e/%s/%s", testID, name)
}

func widgetKind(t *testing.T) *document.Schema {
	t.Helper()
	kind, err := registry.Define(document.Definition{
		Name:      "widget-" + testID,
		Container: container("widgets"),
		Fields: map[string]document.Field{
			"sku":     {Kind: document.KindString, ID: true},
			"label":   {Kind: document.KindString, Presentation: true},
			"price":   {Kind: document.KindInt, Presentation: true},
			"stocked": {Kind: document.KindTime},
		},
	})
	if err != nil {
		t.Fatalf("define widget kind: %v", err)
	}
	return kind
}

// waitForView polls the view store until the entry under id satisfies
// check, failing the test after a few seconds. View writes are
// asynchronous, so a plain read races the dispatch queue.
func waitForView(t *testing.T, path, id string, check func(map[string]any) bool) map[string]any {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for {
		raw, err := view.Read(ctx, path+"/"+id)
		if err == nil {
			if entry, ok := raw.(map[string]any); ok && check(entry) {
				return entry
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("view entry %s/%s did not reach expected state (last: %v, err: %v)", path, id, raw, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// waitForViewGone polls until no entry exists under id.
func waitForViewGone(t *testing.T, path, id string) {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for {
		raw, err := view.Read(ctx, path+"/"+id)
		if err == nil && raw == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("view entry %s/%s still present: %v (err: %v)", path, id, raw, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	kind := widgetKind(t)

	sku := "W-" + uuid.New().String()[:8]
	stocked := time.Now().UTC().Truncate(time.Second)

	doc, err := kind.New(map[string]any{
		"sku":     sku,
		"label":   "anvil",
		"price":   1200,
		"stocked": stocked,
	}, document.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Cleanup(func() {
		if err := doc.Delete(context.Background()); err != nil {
			t.Logf("cleanup delete: %v", err)
		}
	})

	fetched, err := kind.Get(ctx, sku)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v, _ := fetched.Value("label"); v != "anvil" {
		t.Errorf("expected label anvil, got %v", v)
	}
	if v, _ := fetched.Value("price"); v != int64(1200) {
		t.Errorf("expected price 1200, got %v", v)
	}
	v, _ := fetched.Value("stocked")
	got, ok := v.(time.Time)
	if !ok || !got.Equal(stocked) {
		t.Errorf("expected stocked %v, got %v", stocked, v)
	}
}

func TestSavePropagatesPresentationalFields(t *testing.T) {
	ctx := context.Background()
	kind := widgetKind(t)

	sku := "W-" + uuid.New().String()[:8]
	doc, err := kind.New(map[string]any{
		"sku":   sku,
		"label": "crate",
		"price": 40,
	}, document.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Cleanup(func() {
		if err := doc.Delete(context.Background()); err != nil {
			t.Logf("cleanup delete: %v", err)
		}
	})

	entry := waitForView(t, kind.Container(), sku, func(m map[string]any) bool {
		return m["label"] == "crate"
	})
	if _, ok := entry["stocked"]; ok {
		t.Error("expected non-presentational field to stay out of the view")
	}

	// A change that touches no presentational field leaves the view alone.
	if err := doc.Set("stocked", time.Now()); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	// A presentational change propagates.
	if err := doc.Set("price", 55); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("third save: %v", err)
	}
	waitForView(t, kind.Container(), sku, func(m map[string]any) bool {
		// Realtime Database returns JSON numbers as float64.
		price, ok := m["price"].(float64)
		return ok && price == 55
	})
}

func TestDeleteRemovesBothStores(t *testing.T) {
	ctx := context.Background()
	kind := widgetKind(t)

	sku := "W-" + uuid.New().String()[:8]
	doc, err := kind.New(map[string]any{"sku": sku, "label": "drum", "price": 9}, document.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	waitForView(t, kind.Container(), sku, func(m map[string]any) bool {
		return m["label"] == "drum"
	})

	if err := doc.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := kind.Get(ctx, sku); !isNotFound(err) {
		t.Errorf("expected not-found after delete, got %v", err)
	}
	waitForViewGone(t, kind.Container(), sku)
}

func TestSaveUnfetchedOverExisting(t *testing.T) {
	ctx := context.Background()
	kind := widgetKind(t)

	sku := "W-" + uuid.New().String()[:8]
	doc, err := kind.New(map[string]any{"sku": sku, "label": "first", "price": 1}, document.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Cleanup(func() {
		if err := doc.Delete(context.Background()); err != nil {
			t.Logf("cleanup delete: %v", err)
		}
	})

	clash, err := kind.New(map[string]any{"sku": sku, "label": "second", "price": 2}, document.Options{})
	if err != nil {
		t.Fatalf("new clash: %v", err)
	}
	if err := clash.Save(ctx, document.SaveOptions{}); !isAlreadyExists(err) {
		t.Errorf("expected already-exists, got %v", err)
	}

	// TreatAsFetched makes the overwrite intentional.
	overwrite, err := kind.New(map[string]any{"sku": sku, "label": "second", "price": 2},
		document.Options{TreatAsFetched: true})
	if err != nil {
		t.Fatalf("new overwrite: %v", err)
	}
	if err := overwrite.Save(ctx, document.SaveOptions{}); err != nil {
		t.Errorf("expected overwrite to succeed, got %v", err)
	}
}

func TestPointerRouting(t *testing.T) {
	ctx := context.Background()

	fields := map[string]document.Field{
		"case_id": {Kind: document.KindString, ID: true},
		"title":   {Kind: document.KindString},
		"status":  {Kind: document.KindString},
	}
	byStatus := func(v document.View) map[string]any {
		return map[string]any{
			"title":  v.Value("title"),
			"status": v.Value("status"),
		}
	}

	ongoing, err := registry.DefinePointer(document.Definition{
		Name:         "ongoing-" + testID,
		Container:    container("ongoing"),
		Fields:       fields,
		Presentation: byStatus,
	})
	if err != nil {
		t.Fatalf("define ongoing: %v", err)
	}
	confirmed, err := registry.DefinePointer(document.Definition{
		Name:         "confirmed-" + testID,
		Container:    container("confirmed"),
		Fields:       fields,
		Presentation: byStatus,
	})
	if err != nil {
		t.Fatalf("define confirmed: %v", err)
	}

	cases, err := registry.Define(document.Definition{
		Name:      "case-" + testID,
		Container: container("cases"),
		Fields:    fields,
		OnSave: func(ctx context.Context, v document.View) error {
			if v.StringValue("status") == "confirmed" {
				return document.Route(ctx, v, confirmed, ongoing)
			}
			return document.Route(ctx, v, ongoing, confirmed)
		},
	})
	if err != nil {
		t.Fatalf("define case: %v", err)
	}

	caseID := "C-" + uuid.New().String()[:8]
	doc, err := cases.New(map[string]any{
		"case_id": caseID,
		"title":   "leaking pipe",
		"status":  "ongoing",
	}, document.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	t.Cleanup(func() {
		if err := doc.Delete(context.Background()); err != nil {
			t.Logf("cleanup delete: %v", err)
		}
	})

	waitForView(t, ongoing.Container(), caseID, func(m map[string]any) bool {
		return m["status"] == "ongoing"
	})

	if err := doc.Set("status", "confirmed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := doc.Save(ctx, document.SaveOptions{}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	waitForView(t, confirmed.Container(), caseID, func(m map[string]any) bool {
		return m["status"] == "confirmed"
	})
	waitForViewGone(t, ongoing.Container(), caseID)
}

func isNotFound(err error) bool {
	return errors.Is(err, document.ErrNotFound)
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, document.ErrAlreadyExists)
}
