package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/idilsaglam/optodo/internal/action"
	"github.com/idilsaglam/optodo/internal/config"
	"github.com/idilsaglam/optodo/internal/logs"
	"github.com/idilsaglam/optodo/internal/model"
	"github.com/idilsaglam/optodo/internal/query"
	"github.com/idilsaglam/optodo/internal/server"
	"github.com/idilsaglam/optodo/internal/store"
	"github.com/idilsaglam/optodo/internal/store/jsonstore"
	"github.com/idilsaglam/optodo/internal/store/memstore"
	"github.com/idilsaglam/optodo/internal/store/sqlstore"
	"github.com/idilsaglam/optodo/internal/submission"
	"github.com/idilsaglam/optodo/internal/tui"
	"github.com/idilsaglam/optodo/internal/ui"
	"github.com/idilsaglam/optodo/internal/view"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
	Debug bool // debug-level logging
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp()
		return 0
	}

	app, err := newApp(opt)
	if err != nil {
		ui.Fail("startup: " + err.Error())
		return 1
	}
	defer app.close()

	switch cmd {
	case "ls":
		return doList(app, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: optodo add <text...>")
			return 2
		}
		return doAdd(app, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			ui.Fail("usage: optodo done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("done: not a number: " + a[0])
			return 2
		}
		return doToggle(app, n, opt)

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: optodo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return doRemove(app, n)

	case "tui":
		return doTUI(app)

	case "serve":
		addr := "localhost:8080"
		if len(a) == 1 {
			addr = a[0]
		}
		return doServe(app, addr)

	case "config":
		if len(a) == 1 && a[0] == "init" {
			return doConfigInit(app)
		}
		return doConfigShow(app)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`optodo - a todo list with optimistic updates

Usage:
  optodo <subcommand> [args]

Subcommands:
  add <text...>      Add a new item (text can be multiple words)
  ls                 List items
  done <index>       Toggle completion for item at 1-based index
  rm <index>         Remove item at 1-based index
  tui                Interactive list
  serve [addr]       JSON API (default localhost:8080)
  config [init]      Show effective config, or write the default file

Examples:
  optodo add "Buy milk"
  optodo ls
  optodo done 2
  OPTODO_LATENCY_MS=0 optodo done 2
`)
}

// -------------- wiring ----------------

type app struct {
	cfg      config.Config
	log      *slog.Logger
	logClose func() error
	store    store.Store
	todos    *query.TodoCache
	tracker  *submission.Tracker
	actions  *action.Actions
}

func newApp(opt Options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opt.Debug {
		logs.SetDebug()
	}
	log, logClose, err := logs.New(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store {
	case "sqlite":
		path, err := cfg.DBPath()
		if err != nil {
			return nil, err
		}
		st, err = sqlstore.Open(path)
		if err != nil {
			return nil, err
		}
	case "mem":
		st = memstore.New()
	default:
		st, err = jsonstore.Open(cfg.DataFile)
		if err != nil {
			return nil, err
		}
	}

	todos := query.NewTodos(st)
	tracker := submission.NewTracker()
	return &app{
		cfg:      cfg,
		log:      log,
		logClose: logClose,
		store:    st,
		todos:    todos,
		tracker:  tracker,
		actions:  action.New(st, todos, tracker, cfg.Latency(), log),
	}, nil
}

func (a *app) close() {
	a.store.Close()
	a.logClose()
}

// -------------- subcommand impls ----------------

func doList(a *app, opt Options) int {
	todos, err := a.todos.Get(context.Background(), query.TodosKey)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return 1
	}
	renderList(todos, nil, opt)
	return 0
}

func doAdd(a *app, text string) int {
	todo, err := a.actions.Create(context.Background(), text)
	if err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK("added " + string(todo.ID))
	return 0
}

// doToggle renders the predicted list as soon as the mutation is
// submitted, then the confirmed list once it settles.
func doToggle(a *app, userIndex int, opt Options) int {
	ctx := context.Background()
	todos, err := a.todos.Get(ctx, query.TodosKey)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return 1
	}
	if userIndex < 1 || userIndex > len(todos) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(todos), userIndex))
		fmt.Fprintln(os.Stderr, ui.MutedStyle.Render("Hint: run `optodo ls` to see valid indexes"))
		return 2
	}
	target := todos[userIndex-1]

	changed := make(chan struct{}, 1)
	cancel := a.tracker.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	result := make(chan error, 1)
	go func() {
		_, err := a.actions.SetCompleted(ctx, target.ID, !target.Completed)
		result <- err
	}()

	// first notification is the submit
	<-changed
	if a.cfg.Latency() > 0 {
		snapshot, _ := a.todos.Peek(query.TodosKey)
		fmt.Println(ui.SyncStyle.Render("predicted:"))
		renderList(view.Overlay(snapshot, a.tracker.Snapshot()), a.tracker, opt)
	}

	if err := <-result; err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	confirmed, err := a.todos.Get(ctx, query.TodosKey)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return 1
	}
	ui.OK("toggled")
	renderList(confirmed, nil, opt)
	return 0
}

func doRemove(a *app, userIndex int) int {
	ctx := context.Background()
	todos, err := a.todos.Get(ctx, query.TodosKey)
	if err != nil {
		ui.Fail("list: " + err.Error())
		return 1
	}
	if userIndex < 1 || userIndex > len(todos) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(todos), userIndex))
		fmt.Fprintln(os.Stderr, ui.MutedStyle.Render("Hint: run `optodo ls` to see valid indexes"))
		return 2
	}
	if _, err := a.store.Delete(ctx, todos[userIndex-1].ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	a.todos.Invalidate(query.TodosKey)
	ui.OK("removed")
	return 0
}

func doTUI(a *app) int {
	if err := tui.Run(tui.Deps{
		Actions: a.actions,
		Todos:   a.todos,
		Tracker: a.tracker,
		Store:   a.store,
	}); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doServe(a *app, addr string) int {
	s := server.New(a.actions, a.todos, a.log)
	if err := s.ListenAndServe(addr); err != nil {
		ui.Fail("serve: " + err.Error())
		return 1
	}
	return 0
}

func doConfigShow(a *app) int {
	c := a.cfg
	lines := []string{
		ui.TitleStyle.Render("Config"),
		fmt.Sprintf("store       %s", c.Store),
		fmt.Sprintf("data_file   %s", orDefault(c.DataFile, "./"+jsonstore.DefaultFileName)),
		fmt.Sprintf("db_file     %s", orDefault(c.DBFile, "~/.optodo/todos.sqlite3")),
		fmt.Sprintf("latency_ms  %d", c.LatencyMS),
		fmt.Sprintf("log_file    %s", orDefault(c.LogFile, "(stderr only)")),
	}
	ui.Panel(lines)
	return 0
}

func doConfigInit(a *app) int {
	if err := config.Save(a.cfg); err != nil {
		ui.Fail("config init: " + err.Error())
		return 1
	}
	ui.OK("wrote ~/.optodo/config.json")
	return 0
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// -------------- rendering helpers --------------

func renderList(todos []model.Todo, tracker *submission.Tracker, opt Options) {
	d, p := stats(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.TitleStyle.Render("Todos"),
		ui.SuccessStyle.Render("✔"), d,
		ui.PendingStyle.Render("•"), p,
		ui.AccentStyle.Render("Total"), len(todos),
	)

	inFlight := map[model.ID]bool{}
	if tracker != nil {
		for _, s := range tracker.Pending(submission.KindSetCompleted) {
			if in, ok := s.Input.(submission.SetCompletedInput); ok {
				inFlight[in.ID] = true
			}
		}
	}

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.MutedStyle.Render(ui.ProgressBar(d, len(todos), 28)))
	lines = append(lines, "")
	if opt.Group {
		lines = append(lines, groupLines(todos, inFlight)...)
	} else {
		lines = append(lines, flatLines(todos, inFlight)...)
	}
	ui.Panel(lines)
}

func stats(todos []model.Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

func flatLines(todos []model.Todo, inFlight map[model.ID]bool) []string {
	if len(todos) == 0 {
		return []string{ui.MutedStyle.Render("no items")}
	}
	out := make([]string, 0, len(todos))
	for i, t := range todos {
		idx := fmt.Sprintf("%2d.", i+1)
		box := ui.MutedStyle.Render(ui.BoxUnchecked)
		text := t.Text
		if t.Completed {
			box = ui.SuccessStyle.Render(ui.BoxChecked)
		}
		if len(text) > 80 {
			text = text[:77] + "..."
		}
		if inFlight[t.ID] {
			box = ui.SyncStyle.Render(ui.SymSyncing)
			text = ui.SyncStyle.Render(text)
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.MutedStyle.Render(idx), box, text))
	}
	return out
}

func groupLines(todos []model.Todo, inFlight map[model.ID]bool) []string {
	var open, done []model.Todo
	for _, t := range todos {
		if t.Completed {
			done = append(done, t)
		} else {
			open = append(open, t)
		}
	}
	var lines []string
	lines = append(lines, ui.AccentStyle.Render("Pending"))
	if len(open) == 0 {
		lines = append(lines, ui.MutedStyle.Render("(none)"))
	} else {
		lines = append(lines, flatLines(open, inFlight)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.AccentStyle.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, ui.MutedStyle.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done, inFlight)...)
	}
	return lines
}
