// Package repository defines the event store interface and errors.
package repository

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithMaxOpenConns sets the connection pool's open-connection cap.
func WithMaxOpenConns(n int) Option {
	return func(s *GormStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns sets the connection pool's idle-connection cap.
func WithMaxIdleConns(n int) Option {
	return func(s *GormStore) {
		if n > 0 {
			s.maxIdleConns = n
		}
	}
}
