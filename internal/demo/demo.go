// Package demo holds the record types and the getting-started scenario run
// by the wurm demo command.
package demo

import (
	"context"
	"fmt"

	"github.com/roach88/wurm"
)

// NamedPoint is a point in the plane with a unique name.
type NamedPoint struct {
	wurm.Table
	Name string `wurm:",unique"`
	X    int64
	Y    int64
}

// Team owns players through the team field of Player.
type Team struct {
	wurm.Table
	Name    string `wurm:",unique"`
	Players wurm.Relation[Player] `wurm:"target=Player.team"`
}

// Player belongs to a team.
type Player struct {
	wurm.Table
	Name string
	Team *Team
}

func init() {
	wurm.MustRegister[NamedPoint]()
	wurm.MustRegister[Team]()
	wurm.MustRegister[Player]()
}

// PointView is the printable form of a NamedPoint.
type PointView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	X    int64  `json:"x"`
	Y    int64  `json:"y"`
}

func (p PointView) String() string {
	return fmt.Sprintf("#%d %s (%d, %d)", p.ID, p.Name, p.X, p.Y)
}

func viewOf(p *NamedPoint) PointView {
	return PointView{ID: p.RowID, Name: p.Name, X: p.X, Y: p.Y}
}

// Report is what Run observed.
type Report struct {
	Points  []PointView `json:"points"`
	Found   PointView   `json:"found"`
	Team    string      `json:"team"`
	Players []string    `json:"players"`
	Moved   int64       `json:"moved"`
}

// Run resets the demo tables and walks through inserting, listing, querying
// and updating records. ctx must be bound to a store.
func Run(ctx context.Context) (*Report, error) {
	if err := reset(ctx); err != nil {
		return nil, err
	}

	for _, p := range []*NamedPoint{
		{Name: "Basecamp", X: 1, Y: 2},
		{Name: "Goal", X: 10, Y: -7},
	} {
		if err := wurm.Insert(ctx, p); err != nil {
			return nil, fmt.Errorf("insert %s: %w", p.Name, err)
		}
	}

	points, err := wurm.All[NamedPoint](ctx)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	report := &Report{Points: make([]PointView, 0, len(points))}
	for _, p := range points {
		report.Points = append(report.Points, viewOf(p))
	}

	q, err := wurm.Find[NamedPoint](wurm.Where{"x": 10})
	if err != nil {
		return nil, err
	}
	goal, err := q.One(ctx)
	if err != nil {
		return nil, fmt.Errorf("find goal: %w", err)
	}
	report.Found = viewOf(goal)

	team := &Team{Name: "Rovers"}
	if err := wurm.Insert(ctx, team); err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	for _, name := range []string{"Ada", "Grace"} {
		if err := wurm.Insert(ctx, &Player{Name: name, Team: team}); err != nil {
			return nil, fmt.Errorf("insert player %s: %w", name, err)
		}
	}
	players, err := team.Players.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	report.Team = team.Name
	for _, p := range players {
		report.Players = append(report.Players, p.Name)
	}

	// Moving the goal keeps the same instance for later reads.
	goal.X, goal.Y = 12, -5
	if err := wurm.Commit(ctx, goal); err != nil {
		return nil, fmt.Errorf("move goal: %w", err)
	}
	q, err = wurm.Find[NamedPoint](wurm.Where{"x": wurm.Gt(10)})
	if err != nil {
		return nil, err
	}
	if report.Moved, err = q.Count(ctx); err != nil {
		return nil, fmt.Errorf("count moved: %w", err)
	}
	return report, nil
}

func reset(ctx context.Context) error {
	if err := deleteAll[Player](ctx); err != nil {
		return err
	}
	if err := deleteAll[Team](ctx); err != nil {
		return err
	}
	return deleteAll[NamedPoint](ctx)
}

func deleteAll[T any](ctx context.Context) error {
	q, err := wurm.Find[T](nil)
	if err != nil {
		return err
	}
	if _, err := q.Delete(ctx); err != nil {
		return fmt.Errorf("reset %s: %w", q, err)
	}
	return nil
}
