package ports

import "github.com/gabrielcapilla/focusguard/internal/domain"

type ConfigService interface {
	Load() (domain.Config, error)
}
