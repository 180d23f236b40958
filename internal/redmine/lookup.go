package redmine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/journal"
	"redmine-mcp/internal/types"
)

// maxLookupFetches bounds concurrent metadata requests.
const maxLookupFetches = 4

type lookupFetch struct {
	name string
	run  func(ctx context.Context) (journal.NameLookup, error)
}

// BuildNameLookup resolves the ids found in an issue's journals to names.
//
// The issue's own references seed the lookup; statuses, trackers,
// priorities and the project's versions, categories and members are fetched
// concurrently on top. A failed fetch is logged and leaves its fields
// unresolved, so the result may be partial but is never nil.
func BuildNameLookup(ctx context.Context, c *client.Client, issue *types.Issue) journal.NameLookup {
	lookup := seedLookup(issue)

	fetches := []lookupFetch{
		{name: "statuses", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchStatuses(ctx, c) }},
		{name: "trackers", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchTrackers(ctx, c) }},
		{name: "priorities", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchPriorities(ctx, c) }},
	}
	if issue.Project.ID != 0 {
		projectID := issue.Project.ID
		fetches = append(fetches,
			lookupFetch{name: "versions", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchVersions(ctx, c, projectID) }},
			lookupFetch{name: "categories", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchCategories(ctx, c, projectID) }},
			lookupFetch{name: "memberships", run: func(ctx context.Context) (journal.NameLookup, error) { return fetchMembers(ctx, c, projectID) }},
		)
	}

	results := make([]journal.NameLookup, len(fetches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookupFetches)
	for i, f := range fetches {
		i, f := i, f
		g.Go(func() error {
			res, err := f.run(gctx)
			if err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"issue":    issue.ID,
					"metadata": f.name,
				}).Warn("name lookup incomplete")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		lookup.Merge(res)
	}
	return lookup
}

// seedLookup records every reference the issue payload already names.
func seedLookup(issue *types.Issue) journal.NameLookup {
	lookup := journal.NameLookup{}
	addRef := func(field string, r *types.Ref) {
		if r != nil && r.ID != 0 && r.Name != "" {
			lookup.Add(field, strconv.Itoa(r.ID), r.Name)
		}
	}

	addRef("project_id", &issue.Project)
	addRef("status_id", &issue.Status)
	addRef("priority_id", &issue.Priority)
	addRef("tracker_id", issue.Tracker)
	addRef("assigned_to_id", issue.AssignedTo)
	addRef("author_id", &issue.Author)
	addRef("assigned_to_id", &issue.Author)
	addRef("category_id", issue.Category)
	addRef("fixed_version_id", issue.FixedVersion)
	for _, cf := range issue.CustomFields {
		if cf.ID != 0 && cf.Name != "" {
			lookup.Add(journal.CustomFieldKey, strconv.Itoa(cf.ID), cf.Name)
		}
	}
	for i := range issue.Journals {
		addRef("assigned_to_id", &issue.Journals[i].User)
	}
	for i := range issue.Watchers {
		addRef("assigned_to_id", &issue.Watchers[i])
	}
	return lookup
}

func fetchStatuses(ctx context.Context, c *client.Client) (journal.NameLookup, error) {
	var resp types.IssueStatusesResponse
	if err := c.GetJSON(ctx, "/issue_statuses.json", &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, s := range resp.IssueStatuses {
		lookup.Add("status_id", strconv.Itoa(s.ID), s.Name)
	}
	return lookup, nil
}

func fetchTrackers(ctx context.Context, c *client.Client) (journal.NameLookup, error) {
	var resp types.TrackersResponse
	if err := c.GetJSON(ctx, "/trackers.json", &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, t := range resp.Trackers {
		lookup.Add("tracker_id", strconv.Itoa(t.ID), t.Name)
	}
	return lookup, nil
}

func fetchPriorities(ctx context.Context, c *client.Client) (journal.NameLookup, error) {
	var resp types.IssuePrioritiesResponse
	if err := c.GetJSON(ctx, "/enumerations/issue_priorities.json", &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, p := range resp.IssuePriorities {
		lookup.Add("priority_id", strconv.Itoa(p.ID), p.Name)
	}
	return lookup, nil
}

func fetchVersions(ctx context.Context, c *client.Client, projectID int) (journal.NameLookup, error) {
	var resp types.VersionsResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/projects/%d/versions.json", projectID), &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, v := range resp.Versions {
		lookup.Add("fixed_version_id", strconv.Itoa(v.ID), v.Name)
	}
	return lookup, nil
}

func fetchCategories(ctx context.Context, c *client.Client, projectID int) (journal.NameLookup, error) {
	var resp types.CategoriesResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/projects/%d/issue_categories.json", projectID), &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, cat := range resp.IssueCategories {
		lookup.Add("category_id", strconv.Itoa(cat.ID), cat.Name)
	}
	return lookup, nil
}

// fetchMembers maps project members (users and groups) for the assignee field.
func fetchMembers(ctx context.Context, c *client.Client, projectID int) (journal.NameLookup, error) {
	var resp types.MembershipsResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/projects/%d/memberships.json?limit=100", projectID), &resp); err != nil {
		return nil, err
	}
	lookup := journal.NameLookup{}
	for _, m := range resp.Memberships {
		for _, r := range []*types.Ref{m.User, m.Group} {
			if r != nil && r.ID != 0 {
				lookup.Add("assigned_to_id", strconv.Itoa(r.ID), r.Name)
			}
		}
	}
	return lookup, nil
}
