package sessiontest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TodoStorageKey is where TodoApp persists its items, as the TodoMVC demo
// does in localStorage.
const TodoStorageKey = "react-todos"

// Todo is one persisted item.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoApp is a TodoMVC clone with the demo site's markup: a placeholder
// entry box, data-testid="todo-item" rows, a "Toggle Todo" checkbox per row
// and a "Delete" button that only renders while the row is hovered.
type TodoApp struct {
	storage Storage
	Todos   []Todo
	draft   string
}

// TodoSite serves TodoApp at url.
func TodoSite(url string) Site {
	return Site{Prefix: url, New: func(_ string, st Storage) App { return NewTodoApp(st) }}
}

func NewTodoApp(st Storage) *TodoApp {
	a := &TodoApp{storage: st}
	if raw, ok := st[TodoStorageKey]; ok {
		_ = json.Unmarshal([]byte(raw), &a.Todos)
	}
	return a
}

func (a *TodoApp) Title() string { return "React • TodoMVC" }

// Add appends an item the way the UI would.
func (a *TodoApp) Add(title string) {
	a.Todos = append(a.Todos, Todo{ID: uuid.NewString(), Title: title})
	a.persist()
}

func (a *TodoApp) persist() {
	if a.storage == nil {
		return
	}
	b, _ := json.Marshal(a.Todos)
	a.storage[TodoStorageKey] = string(b)
}

func (a *TodoApp) Render() []*Node {
	list := E("ul", "class", "todo-list")
	left := 0
	completed := 0
	for _, t := range a.Todos {
		cls := ""
		if t.Completed {
			cls = "completed"
			completed++
		} else {
			left++
		}
		toggle := E("input", "class", "toggle", "type", "checkbox", "aria-label", "Toggle Todo").Checked(t.Completed)
		list.Append(E("li", "data-testid", "todo-item", "class", cls, "data-id", t.ID).Append(
			E("div", "class", "view").Append(
				toggle,
				E("label", "data-testid", "todo-title").T(t.Title),
				E("button", "class", "destroy", "aria-label", "Delete").HoverOnly(),
			),
		))
	}

	app := E("section", "class", "todoapp").Append(
		E("header", "class", "header").Append(
			E("h1").T("todos"),
			E("input", "class", "new-todo", "placeholder", "What needs to be done?", "value", a.draft),
		),
	)
	if len(a.Todos) > 0 {
		app.Append(
			E("section", "class", "main").Append(
				E("input", "id", "toggle-all", "class", "toggle-all", "type", "checkbox").Checked(left == 0),
				E("label", "for", "toggle-all").T("Mark all as complete"),
				list,
			),
			a.footer(left, completed),
		)
	}
	return []*Node{app}
}

func (a *TodoApp) footer(left, completed int) *Node {
	unit := "items"
	if left == 1 {
		unit = "item"
	}
	f := E("footer", "class", "footer").Append(
		E("span", "class", "todo-count", "data-testid", "todo-count").T(fmt.Sprintf("%d %s left", left, unit)),
	)
	if completed > 0 {
		f.Append(E("button", "class", "clear-completed").T("Clear completed"))
	}
	return f
}

func (a *TodoApp) index(n *Node) int {
	for cur := n; cur != nil; cur = cur.parent {
		if id, ok := cur.attrs["data-id"]; ok {
			for i, t := range a.Todos {
				if t.ID == id {
					return i
				}
			}
			return -1
		}
	}
	return -1
}

func (a *TodoApp) Handle(ev Event) Effect {
	cls := ev.Target.attrs["class"]
	switch {
	case ev.Type == EventInput && cls == "new-todo":
		a.draft = ev.Target.value
	case ev.Type == EventKey && cls == "new-todo" && ev.Key == "Enter":
		title := strings.TrimSpace(ev.Target.value)
		if title == "" {
			return Effect{}
		}
		a.draft = ""
		a.Add(title)
		return Effect{Rerender: true}
	case ev.Type == EventChange && cls == "toggle":
		if i := a.index(ev.Target); i >= 0 {
			a.Todos[i].Completed = ev.Target.checked
			a.persist()
			return Effect{Rerender: true}
		}
	case ev.Type == EventChange && cls == "toggle-all":
		for i := range a.Todos {
			a.Todos[i].Completed = ev.Target.checked
		}
		a.persist()
		return Effect{Rerender: true}
	case ev.Type == EventClick && cls == "destroy":
		if i := a.index(ev.Target); i >= 0 {
			a.Todos = append(a.Todos[:i], a.Todos[i+1:]...)
			a.persist()
			return Effect{Rerender: true}
		}
	case ev.Type == EventClick && cls == "clear-completed":
		kept := a.Todos[:0]
		for _, t := range a.Todos {
			if !t.Completed {
				kept = append(kept, t)
			}
		}
		a.Todos = kept
		a.persist()
		return Effect{Rerender: true}
	}
	return Effect{}
}
