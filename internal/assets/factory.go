package assets

import "arefa/internal/platform/config"

// New picks OSS when it is fully configured, local disk otherwise.
func New(cfg config.AssetsConfig) (Store, error) {
	if cfg.OSS.Enabled() {
		s, err := NewOSS(cfg.OSS)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewLocal(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
