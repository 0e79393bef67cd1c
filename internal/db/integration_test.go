//go:build integration

package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/model"
)

var (
	postgresDSN string
	mongoURI    string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "vidhub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := pg.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := pg.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	postgresDSN = fmt.Sprintf("postgres://postgres:password@%s:%s/vidhub_test?sslmode=disable", host, port.Port())

	mg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	mongoHost, err := mg.Host(ctx)
	if err != nil {
		panic(err)
	}
	mongoPort, err := mg.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	mongoURI = fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort.Port())

	code := m.Run()
	_ = pg.Terminate(ctx)
	_ = mg.Terminate(ctx)
	os.Exit(code)
}

type userStore interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user model.User) (*model.User, error)
	UpdateFields(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

func exerciseStore(t *testing.T, store userStore) {
	ctx := context.Background()

	created, err := store.Create(ctx, model.User{
		Username:     "annlee",
		Email:        "ann@x.com",
		FullName:     "Ann Lee",
		Avatar:       "https://cdn/a.png",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Empty(t, created.RefreshToken)

	_, err = store.Create(ctx, model.User{Username: "annlee", Email: "other@x.com", FullName: "x", Avatar: "a", PasswordHash: "h"})
	require.ErrorIs(t, err, db.ErrDuplicate)

	found, err := store.FindByEmailOrUsername(ctx, "", "annlee")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	found, err = store.FindByEmailOrUsername(ctx, "ann@x.com", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = store.FindByEmailOrUsername(ctx, "nobody@x.com", "nobody")
	require.ErrorIs(t, err, db.ErrNotFound)

	updated, err := store.UpdateFields(ctx, created.ID, model.UserPatch{
		FullName:     model.StringPtr("Ann B. Lee"),
		RefreshToken: model.StringPtr("rt-1"),
	})
	require.NoError(t, err)
	require.Equal(t, "Ann B. Lee", updated.FullName)
	require.Equal(t, "rt-1", updated.RefreshToken)
	require.Equal(t, "ann@x.com", updated.Email)

	cleared, err := store.UpdateFields(ctx, created.ID, model.UserPatch{RefreshToken: model.StringPtr("")})
	require.NoError(t, err)
	require.Empty(t, cleared.RefreshToken)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann B. Lee", byID.FullName)
	require.Equal(t, []string{}, byID.WatchHistory)
}

func TestPostgres_UserStore(t *testing.T) {
	ctx := context.Background()
	store, err := db.OpenPostgres(ctx, config.PostgresConfig{DatabaseURL: postgresDSN})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	exerciseStore(t, store)

	_, err = store.FindByID(ctx, "missing")
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestMongo_UserStore(t *testing.T) {
	ctx := context.Background()
	store, err := db.OpenMongo(ctx, config.MongoConfig{URI: mongoURI, Database: "vidhub_test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	exerciseStore(t, store)

	_, err = store.FindByID(ctx, "not-an-object-id")
	require.ErrorIs(t, err, db.ErrNotFound)
}
