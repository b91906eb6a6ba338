package services

import (
	"testing"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyData(pr models.PullRequest, reviews ...models.Review) models.PrData {
	return models.NewReadyPrData(pr, ResolveReviews(reviews, pr.AuthorLogin), models.NewCommits("c1"), nil)
}

func groupLabels(groups []models.PRGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Label
	}
	return out
}

func TestGroupByRepo(t *testing.T) {
	data := []models.PrData{
		readyData(testPR("acme/widgets", 1, "bob", 0)),
		readyData(testPR("Acme/Gadgets", 2, "bob", 0)),
		readyData(testPR("acme/widgets", 3, "bob", 5)),
		models.NewLoadingPrData(testPR("acme/zeta", 4, "bob", 0)),
	}

	groups := Group(data, models.GroupingByRepo, "alice", false)

	assert.Equal(t, []string{"Acme/Gadgets", "acme/widgets", "acme/zeta"}, groupLabels(groups))
	require.Len(t, groups[1].Data, 2)
	assert.Equal(t, 3, groups[1].Data[0].PR.Number, "most recently updated first")
	assert.True(t, groups[2].Data[0].IsLoading(), "loading entries are grouped too")
}

func TestGroupByAssignee(t *testing.T) {
	assignee := "carol"
	assigned := testPR("acme/widgets", 1, "bob", 0)
	assigned.AssigneeLogin = &assignee
	anonymous := testPR("acme/widgets", 3, "", 0)

	data := []models.PrData{
		readyData(assigned),
		readyData(testPR("acme/widgets", 2, "bob", 0)),
		readyData(anonymous),
	}

	groups := Group(data, models.GroupingByAssignee, "carol", false)

	assert.Equal(t, []string{"carol", "", "bob"}, groupLabels(groups))
	assert.Equal(t, 1, groups[0].Data[0].PR.Number)
	assert.Equal(t, 3, groups[1].Data[0].PR.Number)
}

func TestGroupByReviewer(t *testing.T) {
	pr := testPR("acme/widgets", 1, "bob", 0)
	pr.RequestedReviewers = []string{"C", "A"}
	data := []models.PrData{
		readyData(pr,
			review(1, "A", models.ReviewStatusApproved, 1, "c1"),
			review(2, "B", models.ReviewStatusCommented, 2, "c1"),
		),
		readyData(testPR("acme/widgets", 2, "bob", 0)),
	}

	groups := Group(data, models.GroupingByReviewer, "nobody", false)

	assert.Equal(t, []string{"A", "B", "C"}, groupLabels(groups), "exactly one group per distinct reviewer")
	for _, g := range groups {
		require.Len(t, g.Data, 1)
		assert.Equal(t, 1, g.Data[0].PR.Number)
	}
}

func TestGroupOrdering(t *testing.T) {
	t.Run("Current user group first", func(t *testing.T) {
		data := []models.PrData{
			readyData(testPR("acme/widgets", 1, "Bob", 0)),
			readyData(testPR("acme/widgets", 2, "zed", 0)),
			readyData(testPR("acme/widgets", 3, "alice", 0)),
		}

		groups := Group(data, models.GroupingByAssignee, "zed", false)
		assert.Equal(t, []string{"zed", "alice", "Bob"}, groupLabels(groups))
	})

	t.Run("Non-draft before newer draft", func(t *testing.T) {
		draft := testPR("acme/widgets", 1, "bob", 30)
		draft.Draft = true
		data := []models.PrData{
			readyData(draft),
			readyData(testPR("acme/widgets", 2, "bob", 10)),
			readyData(testPR("acme/widgets", 3, "bob", 20)),
		}

		groups := Group(data, models.GroupingByRepo, "bob", false)
		require.Len(t, groups, 1)

		var order []int
		for _, d := range groups[0].Data {
			order = append(order, d.PR.Number)
		}
		assert.Equal(t, []int{3, 2, 1}, order)
	})
}

func TestGroupShowMeOnly(t *testing.T) {
	requested := testPR("acme/widgets", 2, "bob", 0)
	requested.RequestedReviewers = []string{"alice"}

	data := []models.PrData{
		readyData(testPR("acme/widgets", 1, "alice", 0)),
		readyData(requested),
		readyData(testPR("acme/widgets", 3, "bob", 0), review(9, "alice", models.ReviewStatusCommented, 1, "c1")),
		readyData(testPR("acme/widgets", 4, "bob", 0)),
		models.NewLoadingPrData(testPR("acme/widgets", 5, "carol", 0)),
	}

	groups := Group(data, models.GroupingByRepo, "alice", true)
	require.Len(t, groups, 1)

	var numbers []int
	for _, d := range groups[0].Data {
		numbers = append(numbers, d.PR.Number)
	}
	assert.ElementsMatch(t, []int{1, 2, 3}, numbers)

	assert.Empty(t, Group(data, models.GroupingByRepo, "nobody", true))
}
