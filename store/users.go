package store

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yanni/community/models"
	"github.com/yanni/community/utils"
)

// UserStore manages accounts within a session.
type UserStore struct {
	tx     *gorm.DB
	tokens TokenIssuer
}

// Registration is the input to Register.
type Registration struct {
	Email           string
	Password        string
	PasswordConfirm string
	Nickname        string
	ProfileImage    *string
}

// Register creates a new account after checking the password policy and
// email/nickname uniqueness.
func (s *UserStore) Register(r Registration) (*models.User, error) {
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(r.Password, r.PasswordConfirm); err != nil {
		return nil, err
	}
	if err := checkNickname(r.Nickname); err != nil {
		return nil, err
	}
	image, err := normalizeImage(r.ProfileImage)
	if err != nil {
		return nil, err
	}
	if taken, err := s.exists("email = ?", email); err != nil {
		return nil, err
	} else if taken {
		return nil, ValidationError("email already registered")
	}
	if taken, err := s.exists("nickname = ?", r.Nickname); err != nil {
		return nil, err
	} else if taken {
		return nil, ValidationError("nickname already taken")
	}

	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return nil, StorageError("hash password", err)
	}
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Nickname:     r.Nickname,
		ProfileImage: image,
	}
	if err := s.tx.Create(&user).Error; err != nil {
		return nil, wrap("create user", err)
	}
	return &user, nil
}

// Authenticate verifies credentials and returns a signed token with the user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *UserStore) Authenticate(email, password string) (string, *models.User, error) {
	invalid := AuthError("invalid credentials")
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		utils.BurnPasswordCheck(password)
		return "", nil, invalid
	}

	var user models.User
	err := s.tx.Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.BurnPasswordCheck(password)
		return "", nil, invalid
	}
	if err != nil {
		return "", nil, wrap("find user", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", nil, invalid
	}
	if s.tokens == nil {
		return "", nil, StorageError("issue token", errors.New("no token issuer configured"))
	}
	token, err := s.tokens.Issue(user.ID, user.Nickname)
	if err != nil {
		return "", nil, StorageError("issue token", err)
	}
	return token, &user, nil
}

// Get returns the user with the given id.
func (s *UserStore) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.tx.Take(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("user")
		}
		return nil, wrap("get user", err)
	}
	return &user, nil
}

// UpdateNickname changes the user's nickname. Setting the current nickname
// again is a no-op.
func (s *UserStore) UpdateNickname(id uint, nickname string) (*models.User, error) {
	if err := checkNickname(nickname); err != nil {
		return nil, err
	}
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if user.Nickname == nickname {
		return user, nil
	}
	if taken, err := s.exists("nickname = ? AND id <> ?", nickname, id); err != nil {
		return nil, err
	} else if taken {
		return nil, ValidationError("nickname already taken")
	}
	if err := s.tx.Model(user).Update("nickname", nickname).Error; err != nil {
		return nil, wrap("update nickname", err)
	}
	user.Nickname = nickname
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserStore) ChangePassword(id uint, current, next, confirm string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.PasswordHash, current) {
		return AuthError("current password is incorrect")
	}
	if err := checkPassword(next, confirm); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return StorageError("hash password", err)
	}
	return wrap("update password", s.tx.Model(user).Update("password_hash", hash).Error)
}

// UpdateProfileImage sets or, with nil, clears the profile image.
func (s *UserStore) UpdateProfileImage(id uint, url *string) (*models.User, error) {
	image, err := normalizeImage(url)
	if err != nil {
		return nil, err
	}
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.tx.Model(user).Update("profile_image", image).Error; err != nil {
		return nil, wrap("update profile image", err)
	}
	user.ProfileImage = image
	return user, nil
}

// Withdraw deletes the user together with their posts, comments and likes.
// Rows are removed explicitly so the result does not depend on the engine
// enforcing foreign keys.
func (s *UserStore) Withdraw(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	owned := s.tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
	steps := []struct {
		op    string
		query *gorm.DB
		model interface{}
	}{
		{"delete likes", s.tx.Where("user_id = ? OR post_id IN (?)", id, owned), &models.PostLike{}},
		{"delete comments", s.tx.Where("user_id = ? OR post_id IN (?)", id, owned), &models.Comment{}},
		{"delete posts", s.tx.Where("user_id = ?", id), &models.Post{}},
		{"delete user", s.tx.Where("id = ?", id), &models.User{}},
	}
	for _, step := range steps {
		if err := step.query.Delete(step.model).Error; err != nil {
			return wrap(step.op, err)
		}
	}
	return nil
}

// EnsureUser returns the account with the given email, creating it with an
// unusable random password when missing. Used for service accounts.
func (s *UserStore) EnsureUser(email, nickname string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = s.tx.Where("email = ?", email).Take(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrap("find user", err)
	}
	if err := checkNickname(nickname); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, StorageError("hash password", err)
	}
	user = models.User{Email: email, PasswordHash: hash, Nickname: nickname}
	if err := s.tx.Create(&user).Error; err != nil {
		return nil, wrap("create user", err)
	}
	return &user, nil
}

func (s *UserStore) exists(query string, args ...interface{}) (bool, error) {
	var n int64
	if err := s.tx.Model(&models.User{}).Where(query, args...).Count(&n).Error; err != nil {
		return false, wrap("check user", err)
	}
	return n > 0, nil
}

func normalizeImage(url *string) (*string, error) {
	if url == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*url)
	if v == "" {
		return nil, nil
	}
	if err := validate.Var(v, "uri"); err != nil {
		return nil, ValidationError("image must be a valid URI")
	}
	return &v, nil
}
