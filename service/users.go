package service

import (
	"context"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/bcrypt"

	"boardly-api/domain"
)

// CreateUser stores a new user document. A supplied id is canonicalized,
// otherwise a fresh one is generated. Passwords are stored bcrypt-hashed.
func (s *Service) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = domain.KindUser.NewID()
	} else {
		u.ID = domain.KindUser.ID(u.ID)
	}
	if u.BoardMember == nil {
		u.BoardMember = []string{}
	}
	if u.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, err
		}
		u.Password = string(hashed)
	}
	if err := createDoc(ctx, s, u.ID, u); err != nil {
		return domain.User{}, err
	}
	data, _ := sonic.Marshal(u)
	s.emit(ctx, u.ID, string(domain.KindUser), domain.EventCreated, data)
	u.Password = ""
	return u, nil
}

// GetUser reads one user document.
func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	return getDoc[domain.User](ctx, s, domain.KindUser, domain.KindUser.ID(id))
}

// ListUserIDs returns the ids of every stored user.
func (s *Service) ListUserIDs(ctx context.Context) ([]string, error) {
	docs, err := s.store.QueryPrefix(ctx, domain.KindUser.Prefix())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, raw := range docs {
		var u domain.User
		if err := sonic.Unmarshal(raw, &u); err != nil {
			return nil, err
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// FindUserByEmail scans the user partition for a matching email.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	docs, err := s.store.QueryPrefix(ctx, domain.KindUser.Prefix())
	if err != nil {
		return domain.User{}, err
	}
	for _, raw := range docs {
		var u domain.User
		if err := sonic.Unmarshal(raw, &u); err != nil {
			return domain.User{}, err
		}
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, &NotFoundError{Kind: domain.KindUser, ID: email}
}

// Login checks the email/password pair against the stored credentials
// and returns the matching user with the password hash blanked.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return domain.User{}, &ValidationError{Msg: "invalid credentials"}
	}
	u.Password = ""
	return u, nil
}
