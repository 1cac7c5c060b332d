package dto

import "github.com/eaata/helpdesk/internal/config"

// DatabaseConfigRequest is the body of POST /config/db.
type DatabaseConfigRequest struct {
	Type       string          `json:"type"`
	Host       string          `json:"host"`
	Port       config.PortSpec `json:"port"`
	User       string          `json:"user"`
	Password   string          `json:"password"`
	Name       string          `json:"name"`
	DBURL      string          `json:"dbUrl"`
	BackendURL string          `json:"backendUrl"`
}

// ToFileConfig converts the request into the config file shape.
func (r DatabaseConfigRequest) ToFileConfig() config.FileConfig {
	return config.FileConfig{
		Type:       r.Type,
		Host:       r.Host,
		Port:       r.Port,
		User:       r.User,
		Password:   r.Password,
		Name:       r.Name,
		DBURL:      r.DBURL,
		BackendURL: r.BackendURL,
	}
}
