package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListTasksDecodesWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Fatal("expected request id header")
		}
		_, _ = io.WriteString(w, `[{"id":1,"task":"Buy milk","is_done":false,"date":"2025-01-31","pic":null},{"id":2,"task":"Walk","is_done":true}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	tasks, err := client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Task != "Buy milk" || tasks[0].Date == nil || *tasks[0].Date != "2025-01-31" || tasks[0].Pic != nil {
		t.Fatalf("unexpected first task: %+v", tasks[0])
	}
	if !tasks[1].IsDone || tasks[1].Date != nil {
		t.Fatalf("unexpected second task: %+v", tasks[1])
	}
}

func TestListTasksNullBodyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	}))
	defer srv.Close()

	tasks, err := NewClient(srv.URL, srv.Client()).ListTasks(context.Background())
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty slice, got %#v", tasks)
	}
}

func TestCreateAndUpdateSendPayload(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if _, ok := body["date"]; !ok {
			t.Fatal("date must be sent explicitly, even when null")
		}
		if _, ok := body["pic"]; !ok {
			t.Fatal("pic must be sent explicitly, even when null")
		}
		_ = json.NewEncoder(w).Encode(Task{ID: 7, Task: body["task"].(string), IsDone: body["is_done"].(bool)})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	created, err := client.CreateTask(context.Background(), TaskPayload{Task: "Buy milk"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.ID != 7 || created.Task != "Buy milk" {
		t.Fatalf("unexpected created task: %+v", created)
	}

	updated, err := client.UpdateTask(context.Background(), 7, TaskPayload{Task: "Buy milk", IsDone: true})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if !updated.IsDone {
		t.Fatalf("expected updated task to be done: %+v", updated)
	}

	want := []string{"POST /tasks", "PUT /tasks/7"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected requests: %v", seen)
	}
}

func TestDeleteTaskAcceptsAny2xx(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{name: "no content", status: http.StatusNoContent},
		{name: "message body", status: http.StatusOK, body: `{"msg":"'Buy milk' has been deleted."}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/tasks/3" {
					t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			if err := NewClient(srv.URL, srv.Client()).DeleteTask(context.Background(), 3); err != nil {
				t.Fatalf("delete task: %v", err)
			}
		})
	}
}

func TestUploadSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "receipt.pdf" || string(data) != "%PDF-1.4" {
			t.Fatalf("unexpected upload %q %q", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(UploadResult{URL: "https://media.example/receipt.pdf"})
	}))
	defer srv.Close()

	url, err := NewClient(srv.URL, srv.Client()).Upload(context.Background(), "receipt.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://media.example/receipt.pdf" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestUploadWithoutURLFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, srv.Client()).Upload(context.Background(), "a.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestAPIErrorShapes(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{name: "fastapi detail", status: http.StatusNotFound, body: `{"detail":"Task 9 not found"}`, wantMsg: "Task 9 not found"},
		{name: "error envelope", status: http.StatusBadRequest, body: `{"error":{"code":"BAD","message":"nope"}}`, wantCode: "BAD", wantMsg: "nope"},
		{name: "plain text", status: http.StatusInternalServerError, body: "boom\n", wantMsg: "boom"},
		{name: "empty body", status: http.StatusBadGateway, wantMsg: http.StatusText(http.StatusBadGateway)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, srv.Client()).DeleteTask(context.Background(), 9)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T (%v)", err, err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Code != tc.wantCode || apiErr.Message != tc.wantMsg {
				t.Fatalf("unexpected api error: %+v", apiErr)
			}
			if apiErr.NotFound() != (tc.status == http.StatusNotFound) {
				t.Fatalf("unexpected NotFound() for %d", tc.status)
			}
		})
	}
}

func TestBaseURLPathIsPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL+"/api", srv.Client()).ListTasks(context.Background()); err != nil {
		t.Fatalf("list tasks: %v", err)
	}
}
