package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"TodoList/sdk/go/taskstore"
)

func main() {
	var (
		mu    sync.Mutex
		tasks []taskstore.Task
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(tasks)
		case http.MethodPost:
			var payload taskstore.TaskPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			created := taskstore.Task{ID: int64(len(tasks) + 1), Task: payload.Task, IsDone: payload.IsDone, Date: payload.Date, Pic: payload.Pic}
			tasks = append(tasks, created)
			_ = json.NewEncoder(w).Encode(created)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(taskstore.UploadResult{URL: "https://media.example/" + header.Filename})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := taskstore.NewClient(srv.URL, srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url, err := client.Upload(ctx, "groceries.png", strings.NewReader("fake image"))
	if err != nil {
		panic(err)
	}
	fmt.Printf("uploaded attachment to %s\n", url)

	due := "2025-01-31"
	created, err := client.CreateTask(ctx, taskstore.TaskPayload{Task: "Buy milk", Date: &due, Pic: &url})
	if err != nil {
		panic(err)
	}
	fmt.Printf("created task %d (%s)\n", created.ID, created.Task)

	all, err := client.ListTasks(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("store now holds %d task(s)\n", len(all))
}
