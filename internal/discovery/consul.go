package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Registrar регистрация витрины в Consul с HTTP health-check
type Registrar struct {
	client      *api.Client
	serviceName string
	serviceID   string
	host        string
	port        int
}

// NewRegistrar addr агента Consul, httpAddr адрес HTTP-сервера (":9091" или "host:port")
func NewRegistrar(addr, serviceName, httpAddr string) (*Registrar, error) {
	host, port, err := splitHostPort(httpAddr)
	if err != nil {
		return nil, err
	}
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("hostname: %w", err)
		}
	}

	config := api.DefaultConfig()
	config.Address = addr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Registrar{
		client:      client,
		serviceName: serviceName,
		serviceID:   fmt.Sprintf("%s-%s-%d", serviceName, host, port),
		host:        host,
		port:        port,
	}, nil
}

func (r *Registrar) Registration() *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.serviceName,
		Address: r.host,
		Port:    r.port,
		Tags:    []string{"http", "storefront"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s/health", net.JoinHostPort(r.host, strconv.Itoa(r.port))),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

func (r *Registrar) Register() error {
	if err := r.client.Agent().ServiceRegister(r.Registration()); err != nil {
		return fmt.Errorf("register service: %w", err)
	}
	return nil
}

func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("deregister service: %w", err)
	}
	return nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("http addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("http addr %q: bad port", addr)
	}
	return host, port, nil
}
