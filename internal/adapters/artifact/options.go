package artifact

// Option configures a Store.
type Option func(*Store)

// WithModelFile overrides the model file name inside the artifact
// directory. Empty names are ignored.
func WithModelFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.modelFile = name
		}
	}
}

// WithScalerFile overrides the scaler file name inside the artifact
// directory. Empty names are ignored.
func WithScalerFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.scalerFile = name
		}
	}
}
