package store

import "github.com/yanni/community/models"

// Stats holds the number of live rows per entity.
type Stats struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

// Stats returns entity counts visible to this session.
func (s *Session) Stats() (Stats, error) {
	posts, err := s.Posts().Count()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Posts: posts}
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &st.Users},
		{&models.Comment{}, &st.Comments},
		{&models.PostLike{}, &st.Likes},
	}
	for _, c := range counts {
		if err := s.tx.Model(c.model).Count(c.dst).Error; err != nil {
			return Stats{}, wrap("stats", err)
		}
	}
	return st, nil
}
