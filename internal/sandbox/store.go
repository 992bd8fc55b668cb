package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"opsconsole/internal/infra/sql"
	"opsconsole/internal/sandbox/internal"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidDocument    = errors.New("document must be a json object")
)

// Document is a stored record as the API returns it.
type Document map[string]any

func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

func (d Document) String(key string) string {
	value, _ := d[key].(string)
	return value
}

// Store keeps tenant documents and sign-in credentials in the database.
type Store struct {
	orm sql.ORM
}

func NewStore(orm sql.ORM) (*Store, error) {
	if err := orm.AutoMigrate(&internal.Document{}, &internal.Credential{}); err != nil {
		return nil, fmt.Errorf("auto migrating: %w", err)
	}
	return &Store{orm: orm}, nil
}

// Transaction runs fn against a store bound to one database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.orm.WithContext(ctx).Transaction(func(tx sql.ORM) error {
		return fn(&Store{orm: tx})
	})
}

// Page bounds a listing. A zero Limit returns every document and ignores Offset.
type Page struct {
	Offset int
	Limit  int
}

// List returns one page of the collection in creation order together with
// the number of matching documents. A search term keeps the documents whose
// JSON contains it, ignoring case.
func (s *Store) List(ctx context.Context, tenant, collection, search string, page Page) ([]Document, int, error) {
	filter := func(query sql.ORM) sql.ORM {
		query = query.Where("tenant = ? AND collection = ?", tenant, collection)
		if term := strings.TrimSpace(search); term != "" {
			query = query.Where("LOWER(body) LIKE ?", "%"+strings.ToLower(term)+"%")
		}
		return query
	}

	var total int64
	err := filter(s.orm.WithContext(ctx).Model(&internal.Document{})).
		Count(&total).
		Error()
	if err != nil {
		return nil, 0, fmt.Errorf("count query: %w", err)
	}

	query := filter(s.orm.WithContext(ctx)).Order("created_at, id")
	if page.Limit > 0 {
		query = query.Limit(page.Limit).Offset(page.Offset)
	}

	var entities []internal.Document
	if err := query.Find(&entities).Error(); err != nil {
		return nil, 0, fmt.Errorf("database query: %w", err)
	}

	docs := make([]Document, 0, len(entities))
	for _, entity := range entities {
		doc, err := decode(entity)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, int(total), nil
}

func (s *Store) Get(ctx context.Context, tenant, collection, id string) (Document, error) {
	var entity internal.Document
	err := s.orm.
		WithContext(ctx).
		Where("tenant = ? AND collection = ? AND id = ?", tenant, collection, id).
		First(&entity).
		Error()

	if errors.Is(err, sql.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database query: %w", err)
	}
	return decode(entity)
}

// Put inserts or replaces a document, assigning an id when it has none.
func (s *Store) Put(ctx context.Context, tenant, collection string, doc Document) (Document, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	if doc.ID() == "" {
		doc["id"] = uuid.NewString()
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	var existing internal.Document
	err = s.orm.
		WithContext(ctx).
		Where("tenant = ? AND collection = ? AND id = ?", tenant, collection, doc.ID()).
		First(&existing).
		Error()
	switch {
	case errors.Is(err, sql.ErrRecordNotFound):
		entity := internal.Document{Tenant: tenant, Collection: collection, ID: doc.ID(), Body: string(body)}
		if err := s.orm.WithContext(ctx).Create(&entity).Error(); err != nil {
			return nil, fmt.Errorf("inserting document: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("database query: %w", err)
	default:
		existing.Body = string(body)
		if err := s.orm.WithContext(ctx).Save(&existing).Error(); err != nil {
			return nil, fmt.Errorf("saving document: %w", err)
		}
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, tenant, collection, id string) error {
	if _, err := s.Get(ctx, tenant, collection, id); err != nil {
		return err
	}
	err := s.orm.
		WithContext(ctx).
		Delete(&internal.Document{}, "tenant = ? AND collection = ? AND id = ?", tenant, collection, id).
		Error()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

type Account struct {
	UserID        string
	Email         string
	MultiLocation bool
	Permissions   []string
}

func (s *Store) AddCredential(ctx context.Context, tenant, password string, account Account) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	entity := internal.Credential{
		Tenant:        tenant,
		Email:         strings.ToLower(account.Email),
		PasswordHash:  string(hash),
		UserID:        account.UserID,
		MultiLocation: account.MultiLocation,
		Permissions:   strings.Join(account.Permissions, ","),
	}
	if err := s.orm.WithContext(ctx).Save(&entity).Error(); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, tenant, email string) (Account, error) {
	entity, err := s.credential(ctx, tenant, email)
	if err != nil {
		return Account{}, err
	}
	return toAccount(entity), nil
}

// Authenticate checks an email and password against the tenant credentials.
func (s *Store) Authenticate(ctx context.Context, tenant, email, password string) (Account, error) {
	entity, err := s.credential(ctx, tenant, email)
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entity.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return toAccount(entity), nil
}

func (s *Store) credential(ctx context.Context, tenant, email string) (internal.Credential, error) {
	var entity internal.Credential
	err := s.orm.
		WithContext(ctx).
		Where("tenant = ? AND email = ?", tenant, strings.ToLower(email)).
		First(&entity).
		Error()
	if errors.Is(err, sql.ErrRecordNotFound) {
		return internal.Credential{}, ErrInvalidCredentials
	}
	if err != nil {
		return internal.Credential{}, fmt.Errorf("database query: %w", err)
	}
	return entity, nil
}

func toAccount(entity internal.Credential) Account {
	return Account{
		UserID:        entity.UserID,
		Email:         entity.Email,
		MultiLocation: entity.MultiLocation,
		Permissions:   entity.PermissionList(),
	}
}

func decode(entity internal.Document) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(entity.Body), &doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", entity.ID, err)
	}
	return doc, nil
}
