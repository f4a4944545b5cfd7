package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/linkup-social/linkup/models"
)

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestParseFeedParams(t *testing.T) {
	q, err := ParseFeedParams(FeedParams{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Limit != DefaultFeedLimit || q.Skip != 0 || q.SortColumn != "created_at" || !q.Descending || q.FollowingOnly {
		t.Fatalf("unexpected defaults: %+v", q)
	}

	q, _ = ParseFeedParams(FeedParams{Limit: "abc", Skip: "-4", SortBy: "password", SortOrder: "sideways"})
	if q.Limit != DefaultFeedLimit || q.Skip != 0 || q.SortColumn != "created_at" || !q.Descending {
		t.Fatalf("bad input not coerced: %+v", q)
	}

	q, _ = ParseFeedParams(FeedParams{
		Limit: "500", Skip: "7", SortBy: "likesCount", SortOrder: "ASC",
		Tags: []string{"go, rust", " ", "zig"}, Search: "  hi ", FeedType: "following",
	})
	if q.Limit != MaxFeedLimit || q.Skip != 7 || q.SortColumn != "likes_count" || q.Descending {
		t.Fatalf("unexpected query: %+v", q)
	}
	if len(q.Tags) != 3 || q.Tags[0] != "go" || q.Tags[1] != "rust" || q.Tags[2] != "zig" {
		t.Fatalf("tags = %q", q.Tags)
	}
	if q.Search != "hi" || !q.FollowingOnly {
		t.Fatalf("unexpected query: %+v", q)
	}

	_, err = ParseFeedParams(FeedParams{Author: "not-a-number"})
	assertKind(t, err, KindValidation)
}

func TestFollowingFeed(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	social := NewSocialService(db)
	feed := NewFeedService(db)
	ctx := context.Background()

	a := createUser(t, db, "A")
	b := createUser(t, db, "B")
	c := createUser(t, db, "C")
	createPost(t, posts, a.ID, "from a")
	pb := createPost(t, posts, b.ID, "from b")
	pc := createPost(t, posts, c.ID, "from c")

	if _, err := social.Follow(ctx, Caller{UserID: c.ID}, b.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	page, err := feed.List(ctx, FeedQuery{Limit: 10, SortColumn: "created_at", Descending: true, FollowingOnly: true}, NewCaller(c.ID))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := map[uint]bool{}
	for _, p := range page.Posts {
		got[p.ID] = true
	}
	if len(got) != 2 || !got[pb.ID] || !got[pc.ID] || page.Total != 2 {
		t.Fatalf("following feed = %v (total %d), want %d and %d", postIDs(page.Posts), page.Total, pb.ID, pc.ID)
	}

	_, err = feed.List(ctx, FeedQuery{Limit: 10, SortColumn: "created_at", FollowingOnly: true}, nil)
	assertKind(t, err, KindUnauthorized)
}

func TestFeedPaginationIsComplete(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	feed := NewFeedService(db)
	ctx := context.Background()

	author := createUser(t, db, "Author")
	for i := 0; i < 11; i++ {
		createPost(t, posts, author.ID, fmt.Sprintf("post %d", i))
	}

	for _, sort := range []string{"created_at", "likes_count", "title"} {
		full, err := feed.List(ctx, FeedQuery{Limit: 100, SortColumn: sort, Descending: true}, nil)
		if err != nil {
			t.Fatalf("full list: %v", err)
		}
		var paged []uint
		for skip := 0; ; skip += 4 {
			page, err := feed.List(ctx, FeedQuery{Limit: 4, Skip: skip, SortColumn: sort, Descending: true}, nil)
			if err != nil {
				t.Fatalf("page at %d: %v", skip, err)
			}
			paged = append(paged, postIDs(page.Posts)...)
			if page.HasMore != (skip+4 < 11) {
				t.Fatalf("hasMore at skip %d = %v", skip, page.HasMore)
			}
			if !page.HasMore {
				break
			}
		}
		want := postIDs(full.Posts)
		if len(paged) != len(want) {
			t.Fatalf("sort %s: paged %v, full %v", sort, paged, want)
		}
		for i := range want {
			if paged[i] != want[i] {
				t.Fatalf("sort %s: paged %v, full %v", sort, paged, want)
			}
		}
	}
}

func TestFeedFilters(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostService(db, nil)
	feed := NewFeedService(db)
	ctx := context.Background()

	a := createUser(t, db, "A")
	b := createUser(t, db, "B")
	p1 := createPost(t, posts, a.ID, "Learning Golang today", "GoLang", "backend")
	p2 := createPost(t, posts, b.ID, "Rust ownership", "rust")
	p3 := createPost(t, posts, b.ID, "50% off", "sale")

	base := FeedQuery{Limit: 20, SortColumn: "created_at", Descending: true}

	q := base
	q.AuthorID = b.ID
	page, _ := feed.List(ctx, q, nil)
	if page.Total != 2 {
		t.Fatalf("author filter total = %d", page.Total)
	}

	q = base
	q.Tags = []string{"golang"}
	page, _ = feed.List(ctx, q, nil)
	if len(page.Posts) != 1 || page.Posts[0].ID != p1.ID {
		t.Fatalf("tag filter = %v", postIDs(page.Posts))
	}
	if tags := page.Posts[0].Tags; len(tags) != 2 || tags[0] != "GoLang" || tags[1] != "backend" {
		t.Fatalf("tags not loaded in order: %q", tags)
	}
	if page.Posts[0].Author.Name != "A" || page.Posts[0].Author.PasswordHash != "" {
		t.Fatalf("author not populated with public fields: %+v", page.Posts[0].Author)
	}

	q = base
	q.Tags = []string{"rus", "sal"}
	page, _ = feed.List(ctx, q, nil)
	if page.Total != 2 {
		t.Fatalf("any-tag filter = %v", postIDs(page.Posts))
	}

	q = base
	q.Search = "OWNERSHIP"
	page, _ = feed.List(ctx, q, nil)
	if len(page.Posts) != 1 || page.Posts[0].ID != p2.ID {
		t.Fatalf("search = %v", postIDs(page.Posts))
	}

	q = base
	q.Search = "0%"
	page, _ = feed.List(ctx, q, nil)
	if len(page.Posts) != 1 || page.Posts[0].ID != p3.ID {
		t.Fatalf("literal percent search = %v", postIDs(page.Posts))
	}

	page, _ = feed.List(ctx, base, nil)
	if page.Total != 3 || page.Count != 3 || page.HasMore || page.Page != 1 {
		t.Fatalf("unfiltered page = %+v", page)
	}
}
