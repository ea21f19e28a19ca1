package agenda

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// DefaultConcurrency is the number of project fetches in flight at once.
const DefaultConcurrency = 4

// SourceInbox identifies failures of the explicit inbox fetch.
const SourceInbox = "inbox"

// SourceProject identifies failures of a regular project fetch.
const SourceProject = "project"

// TaskSource is the subset of the gateway the aggregator needs.
// *ticktick.Client satisfies it.
type TaskSource interface {
	ListProjects(ctx context.Context) ([]ticktick.Project, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]ticktick.Task, error)
	ListInboxTasks(ctx context.Context) (*ticktick.InboxResult, error)
}

// Failure records one source that was skipped during aggregation.
type Failure struct {
	Source    string `json:"source"`
	ProjectID string `json:"projectId,omitempty"`
	Err       error  `json:"-"`
}

func (f Failure) Error() string {
	if f.ProjectID == "" || f.ProjectID == f.Source {
		return fmt.Sprintf("%s: %v", f.Source, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.Source, f.ProjectID, f.Err)
}

// Aggregate is the result of ListAllTasks: every task that could be fetched,
// in project order followed by the inbox, plus the sources that were skipped.
type Aggregate struct {
	Tasks    []ticktick.Task
	Failures []Failure
}

// Partial reports whether any source was skipped.
func (a *Aggregate) Partial() bool {
	return len(a.Failures) > 0
}

// Aggregator gathers tasks across all projects and the inbox.
type Aggregator struct {
	source      TaskSource
	concurrency int
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency bounds the number of concurrent project fetches.
// Values below one fall back to sequential fetching.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n < 1 {
			n = 1
		}
		a.concurrency = n
	}
}

// WithLogger sets the logger used for skip warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source TaskSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:      source,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListAllTasks fetches the tasks of every project and then of the inbox.
//
// A project whose tasks cannot be fetched is skipped and recorded in
// Failures; so is an unavailable inbox. Failing to enumerate projects, or a
// configuration or authentication error from any fetch, aborts the call.
// Tasks are not de-duplicated: when the project list already contains the
// inbox its tasks appear twice.
func (a *Aggregator) ListAllTasks(ctx context.Context) (*Aggregate, error) {
	logger := logging.WithOperation(a.logger, "agenda.list_all_tasks")

	projects, err := a.source.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	perProject := make([][]ticktick.Task, len(projects))
	perErr := make([]error, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, p := range projects {
		g.Go(func() error {
			tasks, err := a.source.ListProjectTasks(gctx, p.ID)
			if err != nil {
				if ticktick.IsFatal(err) {
					return err
				}
				perErr[i] = err
				return nil
			}
			perProject[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Aggregate{Tasks: []ticktick.Task{}}
	for i, p := range projects {
		if perErr[i] != nil {
			logger.Warn("skipping project",
				logging.Project(p.ID),
				logging.Err(perErr[i]))
			result.Failures = append(result.Failures, Failure{
				Source:    SourceProject,
				ProjectID: p.ID,
				Err:       perErr[i],
			})
			continue
		}
		result.Tasks = append(result.Tasks, perProject[i]...)
	}

	inbox, err := a.source.ListInboxTasks(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inbox.Warning != nil {
		result.Failures = append(result.Failures, Failure{
			Source:    SourceInbox,
			ProjectID: ticktick.InboxProjectID,
			Err:       inbox.Warning,
		})
	}
	result.Tasks = append(result.Tasks, inbox.Tasks...)

	logger.Debug("aggregated tasks",
		slog.Int("projects", len(projects)),
		slog.Int("tasks", len(result.Tasks)),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}

// ListTasks returns the tasks of one project, or of all projects when
// projectID is empty. The inbox identifier is routed through the inbox
// fetch so that its fallback applies.
func (a *Aggregator) ListTasks(ctx context.Context, projectID string) (*Aggregate, error) {
	switch projectID {
	case "":
		return a.ListAllTasks(ctx)
	case ticktick.InboxProjectID:
		inbox, err := a.source.ListInboxTasks(ctx)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := &Aggregate{Tasks: inbox.Tasks}
		if inbox.Warning != nil {
			result.Failures = []Failure{{Source: SourceInbox, ProjectID: projectID, Err: inbox.Warning}}
		}
		return result, nil
	default:
		tasks, err := a.source.ListProjectTasks(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if tasks == nil {
			tasks = []ticktick.Task{}
		}
		return &Aggregate{Tasks: tasks}, nil
	}
}
