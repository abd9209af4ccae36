package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"yatube/internal/cache"
	"yatube/internal/forms"
	"yatube/internal/live"
	"yatube/internal/models"
	"yatube/internal/paginator"
)

const indexCachePrefix = "index_page:"

func (s *Server) pagePosts(r *http.Request, f models.PostFilter) (*paginator.Page[models.Post], error) {
	ctx := r.Context()
	return paginator.Paginate(r.URL.Query().Get("page"), s.postsPerPage,
		func() (int, error) { return models.CountPosts(ctx, s.DB, f) },
		func(limit, offset int) ([]models.Post, error) { return models.ListPosts(ctx, s.DB, f, limit, offset) })
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(r)
	total, err := models.CountPosts(ctx, s.DB, models.PostFilter{})
	if err != nil {
		s.serverError(w, err)
		return
	}
	// Key on the resolved page so junk page values share one entry.
	number, _ := paginator.Number(r.URL.Query().Get("page"), total, s.postsPerPage)
	cacheable := s.cache != nil && s.cacheTTL > 0 && user == nil
	key := indexCachePrefix + strconv.Itoa(number)
	if cacheable {
		body, err := s.cache.Get(ctx, key)
		if err == nil {
			writeHTML(w, body)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.errorLog.Printf("cache get %s: %v", key, err)
		}
	}

	page, err := paginator.Paginate(strconv.Itoa(number), s.postsPerPage,
		func() (int, error) { return total, nil },
		func(limit, offset int) ([]models.Post, error) {
			return models.ListPosts(ctx, s.DB, models.PostFilter{}, limit, offset)
		})
	if err != nil {
		s.serverError(w, err)
		return
	}
	body, err := s.renderBytes(r, "posts/index", map[string]any{"User": user, "Page": page})
	if err != nil {
		s.serverError(w, err)
		return
	}
	if cacheable {
		if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
			s.errorLog.Printf("cache set %s: %v", key, err)
		}
	}
	writeHTML(w, body)
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := models.GetGroupBySlug(r.Context(), s.DB, r.PathValue("slug"))
	if errors.Is(err, models.ErrNotFound) {
		s.notFound(w)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	page, err := s.pagePosts(r, models.PostFilter{GroupID: group.ID})
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "posts/group_list", map[string]any{"Group": group, "Page": page})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	author, err := models.GetUserByUsername(r.Context(), s.DB, r.PathValue("username"))
	if errors.Is(err, models.ErrNotFound) {
		s.notFound(w)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	page, err := s.pagePosts(r, models.PostFilter{AuthorID: author.ID})
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "posts/profile", map[string]any{"Author": author, "Count": page.Total, "Page": page})
}

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	count, err := models.CountPosts(r.Context(), s.DB, models.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		s.serverError(w, err)
		return
	}
	user := s.currentUser(r)
	s.render(w, r, "posts/post_detail", map[string]any{
		"User":      user,
		"Post":      post,
		"Author":    &post.Author,
		"PostCount": count,
		"IsAuthor":  user != nil && user.ID == post.AuthorID,
	})
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}
	form, ok := s.postForm(w, r)
	if !ok {
		return
	}
	data := map[string]any{"User": user, "Form": form, "IsEdit": false}
	if r.Method == http.MethodGet {
		s.render(w, r, "posts/create_post", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.clientError(w, http.StatusBadRequest)
		return
	}
	if !form.Bind(r.PostForm).Valid() {
		s.render(w, r, "posts/create_post", data)
		return
	}
	id, err := models.CreatePost(r.Context(), s.DB, user.ID, form.Get("text"), forms.GroupID(form))
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.infoLog.Printf("post created: id=%d author=%q", id, user.Username)
	s.publish(r.Context(), live.PostCreated, id)
	http.Redirect(w, r, "/profile/"+url.PathEscape(user.Username)+"/", http.StatusFound)
}

func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	detail := "/posts/" + strconv.Itoa(post.ID) + "/"
	if post.AuthorID != user.ID {
		http.Redirect(w, r, detail, http.StatusFound)
		return
	}
	form, ok := s.postForm(w, r)
	if !ok {
		return
	}
	data := map[string]any{"User": user, "Form": form, "IsEdit": true, "Post": post}
	if r.Method == http.MethodGet {
		form.Initial("text", post.Text)
		if post.GroupID != nil {
			form.Initial("group", strconv.Itoa(*post.GroupID))
		}
		s.render(w, r, "posts/create_post", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.clientError(w, http.StatusBadRequest)
		return
	}
	if !form.Bind(r.PostForm).Valid() {
		s.render(w, r, "posts/create_post", data)
		return
	}
	if err := models.UpdatePost(r.Context(), s.DB, post.ID, form.Get("text"), forms.GroupID(form)); err != nil {
		s.serverError(w, err)
		return
	}
	s.infoLog.Printf("post updated: id=%d author=%q", post.ID, user.Username)
	s.publish(r.Context(), live.PostUpdated, post.ID)
	http.Redirect(w, r, detail, http.StatusFound)
}

// loadPost resolves the {id} path value, replying 404 for unknown posts.
func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		s.notFound(w)
		return nil, false
	}
	post, err := models.GetPost(r.Context(), s.DB, id)
	if errors.Is(err, models.ErrNotFound) {
		s.notFound(w)
		return nil, false
	}
	if err != nil {
		s.serverError(w, err)
		return nil, false
	}
	return post, true
}

func (s *Server) postForm(w http.ResponseWriter, r *http.Request) (*forms.Form, bool) {
	groups, err := models.ListGroups(r.Context(), s.DB)
	if err != nil {
		s.serverError(w, err)
		return nil, false
	}
	return forms.PostForm(groups), true
}

func (s *Server) publish(ctx context.Context, kind string, id int) {
	if s.hub == nil {
		return
	}
	post, err := models.GetPost(ctx, s.DB, id)
	if err != nil {
		s.errorLog.Printf("publish post %d: %v", id, err)
		return
	}
	ev := live.Event{Type: kind, PostID: post.ID, Text: post.Text, Author: post.Author.Username, PubDate: post.PubDate}
	if post.Group != nil {
		ev.Group = post.Group.Slug
	}
	s.hub.Publish(ev)
}
