package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/wenderenzo/listaTarefas/client"
	"github.com/wenderenzo/listaTarefas/domain"
)

const highCostThreshold = 1000

func main() {
	apiURL := flag.String("api", "http://localhost:8080/api", "base URL of the task API")
	flag.Usage = usage
	flag.Parse()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	board := domain.NewBoard(client.New(*apiURL, log.StandardLogger()), log.StandardLogger())
	ctx := context.Background()

	var err error
	switch args[0] {
	case "list":
		err = runList(ctx, board)
	case "add":
		err = runAdd(ctx, board, args[1:])
	case "edit":
		err = runEdit(ctx, board, args[1:])
	case "rm":
		err = runDelete(ctx, board, args[1:])
	case "up":
		err = runMove(ctx, board, args[1:], domain.DirectionUp)
	case "down":
		err = runMove(ctx, board, args[1:], domain.DirectionDown)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", describe(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tasklist [-api URL] <command>

commands:
  list                                   print all tasks in display order
  add  -name N -cost C -due YYYY-MM-DD   create a task
  edit -id ID [-name N] [-cost C] [-due D]
  rm   -id ID                            delete a task
  up   -id ID                            move a task one position up
  down -id ID                            move a task one position down`)
}

// describe turns engine outcomes into user-facing messages.
func describe(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		out := "invalid input:"
		for _, name := range names {
			out += fmt.Sprintf("\n  %s: %s", name, verr.Field(name))
		}
		return out
	}
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		return "a task with that name already exists"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "no task with that id"
	default:
		return err.Error()
	}
}

func runList(ctx context.Context, board *domain.Board) error {
	if err := board.Refresh(ctx); err != nil {
		return err
	}
	tasks := board.Collection().Tasks()
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	fmt.Printf("%3s  %5s  %-30s %10s  %s\n", "#", "id", "name", "cost", "due")
	for _, t := range tasks {
		marker := " "
		if t.Cost >= highCostThreshold {
			marker = "!"
		}
		fmt.Printf("%3d%s %5d  %-30s %10.2f  %s\n",
			t.DisplayOrder, marker, t.ID, t.Name, t.Cost, t.DueDate)
	}
	return nil
}

func runAdd(ctx context.Context, board *domain.Board, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "task name")
	cost := fs.String("cost", "", "task cost")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := board.OpenCreate(); err != nil {
		return err
	}
	s := board.Session()
	s.Name, s.Cost, s.DueDate = *name, *cost, *due

	if err := board.Submit(ctx); err != nil {
		return err
	}
	fmt.Printf("created %q\n", *name)
	return nil
}

func runEdit(ctx context.Context, board *domain.Board, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "task id")
	name := fs.String("name", "", "new task name")
	cost := fs.String("cost", "", "new task cost")
	due := fs.String("due", "", "new due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := board.Refresh(ctx); err != nil {
		return err
	}
	if err := board.OpenEdit(*id); err != nil {
		return err
	}
	s := board.Session()
	if *name != "" {
		s.Name = *name
	}
	if *cost != "" {
		s.Cost = *cost
	}
	if *due != "" {
		s.DueDate = *due
	}

	if err := board.Submit(ctx); err != nil {
		return err
	}
	fmt.Printf("updated task %d\n", *id)
	return nil
}

func runDelete(ctx context.Context, board *domain.Board, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.Int64("id", 0, "task id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := board.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted task %d\n", *id)
	return nil
}

func runMove(ctx context.Context, board *domain.Board, args []string, dir domain.Direction) error {
	fs := flag.NewFlagSet(string(dir), flag.ExitOnError)
	id := fs.Int64("id", 0, "task id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := board.Refresh(ctx); err != nil {
		return err
	}
	moved, err := board.Move(ctx, *id, dir)
	if err != nil {
		return err
	}
	if !moved {
		fmt.Printf("task %d is already at the %smost position\n", *id, edge(dir))
		return nil
	}
	fmt.Printf("moved task %d %s\n", *id, dir)
	return runList(ctx, board)
}

func edge(dir domain.Direction) string {
	if dir == domain.DirectionUp {
		return "top"
	}
	return "bottom"
}
