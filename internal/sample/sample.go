// Package sample is the application served by "idom serve" when no other
// application is configured. It shows a counter, a keyed todo list and a
// file upload.
package sample

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vango-dev/idom/pkg/bunch"
	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/helpers"
	"github.com/vango-dev/idom/pkg/server"
	"github.com/vango-dev/idom/pkg/upload"
)

// UploadName is the file name the upload input sends under.
const UploadName = "sample-upload"

// Root returns the constructor for the application root. sink may be nil,
// in which case the upload section is left out.
func Root(sink upload.Sink) server.RootFunc {
	return func() *element.Element {
		return App.New(element.A("sink", sink))
	}
}

// App is the application root.
var App = element.Define("SampleApp", func(h element.Hooks, p element.Props) *element.Element {
	sink, _ := p.Get("sink").(upload.Sink)
	var files *element.Element
	if sink != nil {
		files = Uploader.New(element.A("sink", sink))
	}
	return element.Div(element.ID("sample"),
		element.H1("Sample Application"),
		element.P(element.ID("location"), server.LocationFrom(h.Context()).Pathname),
		Counter.New(),
		TodoList.New(),
		files,
	)
})

// Counter counts clicks.
var Counter = element.Define("Counter", func(h element.Hooks, p element.Props) *element.Element {
	count := helpers.UseState(h, 0)
	ev := helpers.Events{
		"click": func() { count.Update(func(n int) int { return n + 1 }) },
	}
	return element.Section(element.ID("counter"),
		element.P(element.ID("count"), element.Textf("Count: %d", count.Get())),
		helpers.Node("button", map[string]any{"id": "increment"}, append(ev.Bind(), "Increment")...),
	)
})

type todo struct {
	ID   int
	Text string
	Done bool
}

// inputAttrs is the fixed attribute set of the todo text box.
var inputAttrs = bunch.NewStatic("id", "type", "placeholder", "value")

// TodoList is a list of items keyed by id, so completing or removing one
// item leaves the others in place.
var TodoList = element.Define("TodoList", func(h element.Hooks, p element.Props) *element.Element {
	items := helpers.UseState(h, []todo(nil))
	draft := helpers.UseState(h, "")
	nextID := helpers.UseVar(h, 1)

	add := func() error {
		text := draft.Get()
		if text == "" {
			return errors.New("empty todo")
		}
		id := nextID.Get()
		nextID.Set(id + 1)
		items.Update(func(list []todo) []todo {
			return append(append([]todo(nil), list...), todo{ID: id, Text: text})
		})
		draft.Set("")
		return nil
	}
	update := func(id int, fn func(*todo) bool) {
		items.Update(func(list []todo) []todo {
			out := make([]todo, 0, len(list))
			for _, t := range list {
				if t.ID != id || fn(&t) {
					out = append(out, t)
				}
			}
			return out
		})
	}

	rows := make([]*element.Element, 0, len(items.Get()))
	for _, t := range items.Get() {
		id := t.ID
		label := t.Text
		if t.Done {
			label = "✓ " + label
		}
		rows = append(rows, element.Li(element.Key(strconv.Itoa(id)),
			element.Span(label),
			element.Button(element.Class("toggle"), element.OnClick(func() {
				update(id, func(t *todo) bool { t.Done = !t.Done; return true })
			}), "Toggle"),
			element.Button(element.Class("remove"), element.OnClick(func() {
				update(id, func(*todo) bool { return false })
			}), "Remove"),
		))
	}

	attrs := inputAttrs.Attrs()
	attrs["value"] = draft.Get()
	return element.Section(element.ID("todos"),
		element.Input(attrs, element.OnInput(func(ev element.Event) {
			draft.Set(ev.StringData(0))
		})),
		element.Button(element.ID("add"), element.OnClick(add), "Add"),
		element.Ul(element.ID("todo-list"), rows),
		element.P(element.ID("todo-count"), fmt.Sprintf("%d items", len(items.Get()))),
	)
})

func init() {
	inputAttrs.
		MustSet("id", "todo-input").
		MustSet("type", "text").
		MustSet("placeholder", "What needs doing?")
}

// Uploader saves files sent through its input to a sink.
var Uploader = element.Define("Uploader", func(h element.Hooks, p element.Props) *element.Element {
	status := helpers.UseState(h, "No file uploaded")
	sink, _ := p.Get("sink").(upload.Sink)

	helpers.UseEffect(h, func() func() {
		ctx := h.Context()
		files := server.FilesFrom(ctx)
		if files == nil || sink == nil {
			return nil
		}
		go func() {
			for {
				stream := files.Get(UploadName)
				id, err := files.Drain(ctx, UploadName, stream, sink)
				switch {
				case ctx.Err() != nil:
					return
				case errors.Is(err, upload.ErrEmpty):
					// closed before any data arrived
					continue
				case err != nil:
					status.Set("Upload failed: " + err.Error())
				default:
					status.Set("Uploaded " + id)
				}
			}
		}()
		return nil
	})

	return element.Section(element.ID("upload"),
		element.Input(element.Type("file"), element.Data("upload", UploadName), element.OnChange(func() {})),
		element.P(element.ID("upload-status"), status.Get()),
	)
})
