// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one server-side session. Data holds the securecookie-encoded
// session values; the cookie carries only the encoded ID.
type Record struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	ExpiresAt time.Time `bson:"expires_at"` // TTL index
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a gorilla sessions.Store kept in the http_sessions collection, so
// every instance of the service sees the same sessions.
type Store struct {
	c       *mongo.Collection
	Codecs  []securecookie.Codec
	Options *gsessions.Options
}

var _ gsessions.Store = (*Store)(nil)

// New creates a Mongo-backed session store. keyPairs are passed to
// securecookie the same way gorilla's cookie and filesystem stores take them.
func New(db *mongo.Database, opts gsessions.Options, keyPairs ...[]byte) *Store {
	s := &Store{
		c:       db.Collection("http_sessions"),
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
	}
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}
	return s
}

// Get returns a cached session for the request or loads it.
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session named by the request cookie, or a new one.
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, err
	}
	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

// Save persists the session and writes its cookie. MaxAge < 0 deletes it.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if _, err := s.c.DeleteOne(ctx, bson.M{"_id": session.ID}); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}
	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *Store) save(ctx context.Context, session *gsessions.Session) error {
	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	age := session.Options.MaxAge
	if age == 0 {
		age = 86400
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": session.ID},
		bson.M{"$set": bson.M{
			"data":       data,
			"expires_at": now.Add(time.Duration(age) * time.Second),
			"updated_at": now,
		}},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) load(ctx context.Context, session *gsessions.Session) (bool, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{
		"_id":        session.ID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := securecookie.DecodeMulti(session.Name(), rec.Data, &session.Values, s.Codecs...); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteExpired removes expired sessions. The TTL index normally does this;
// it is exposed for deployments where TTL monitors are disabled.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
