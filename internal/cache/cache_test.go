package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestStudentKey(t *testing.T) {
	assert.Equal(t, "student:abc:profile", StudentKey("abc"))
}

func TestRedisCache_Prefix(t *testing.T) {
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: "localhost:0"}))
	assert.Equal(t, "student:1:profile", c.key(StudentKey("1")))

	p := c.WithPrefix("eslsheets:")
	assert.Equal(t, "eslsheets:student:1:profile", p.key(StudentKey("1")))
	assert.Empty(t, c.prefix)
}
