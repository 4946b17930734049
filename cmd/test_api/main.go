package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/eliseohh/cpmockbot/internal/classplus"
	"github.com/eliseohh/cpmockbot/internal/render"
)

func main() {
	// Mock Classplus Server
	mux := http.NewServeMux()
	mux.HandleFunc("/login/orgcode", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"auth_token":"smoke-token"}`)
	})
	mux.HandleFunc("/login/token", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/mocks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"mocks":[{"id":"101","name":"Math Mock"}]}`)
	})
	mux.HandleFunc("/mock/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"name":"Math Mock","duration_seconds":300,"questions":[{"question":"2+2?","options":["3","4"],"answer":1,"explanation":"Basic addition."}]}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := classplus.NewClient(ts.URL, 5*time.Second)
	ctx := context.Background()

	token, err := client.LoginWithOrgCode(ctx, "org", "user", "pass")
	check(err)
	fmt.Println("✔ LoginWithOrgCode OK")

	_, err = client.LoginWithToken(ctx, token)
	check(err)
	fmt.Println("✔ LoginWithToken OK")

	mocks, err := client.ListMocks(ctx, token)
	check(err)
	if len(mocks) != 1 {
		fail("unexpected mock count: %d", len(mocks))
	}
	fmt.Println("✔ ListMocks OK")

	detail, err := client.MockDetail(ctx, token, string(mocks[0].ID))
	check(err)
	fmt.Println("✔ MockDetail OK")

	dir, err := os.MkdirTemp("", "cpmock_smoke")
	check(err)
	defer os.RemoveAll(dir)

	path, err := render.New(dir).Render(detail)
	check(err)
	fmt.Printf("✔ Rendered %s\n", path)

	check(render.Cleanup(path))
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		fail("file not removed: %s", path)
	}
	fmt.Println("✔ Cleanup OK")
}

func check(err error) {
	if err != nil {
		fail("%v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
