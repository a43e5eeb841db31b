package importer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// NmapRun is the subset of nmap's -oX document that gets imported
type NmapRun struct {
	XMLName xml.Name   `xml:"nmaprun"`
	Scanner string     `xml:"scanner,attr"`
	Args    string     `xml:"args,attr"`
	Hosts   []NmapHost `xml:"host"`
}

// NmapHost is one <host> element
type NmapHost struct {
	Status struct {
		State string `xml:"state,attr"`
	} `xml:"status"`
	Addresses []struct {
		Addr     string `xml:"addr,attr"`
		AddrType string `xml:"addrtype,attr"`
	} `xml:"address"`
	Hostnames []struct {
		Name string `xml:"name,attr"`
		Type string `xml:"type,attr"`
	} `xml:"hostnames>hostname"`
	Ports []NmapPort `xml:"ports>port"`
}

// NmapPort is one <port> element
type NmapPort struct {
	Protocol string `xml:"protocol,attr"`
	PortID   int    `xml:"portid,attr"`
	State    struct {
		State string `xml:"state,attr"`
	} `xml:"state"`
	Service struct {
		Name    string `xml:"name,attr"`
		Product string `xml:"product,attr"`
		Version string `xml:"version,attr"`
	} `xml:"service"`
}

// IPAddress returns the host's first IPv4 or IPv6 address
func (h *NmapHost) IPAddress() string {
	for _, addr := range h.Addresses {
		if addr.AddrType == "ipv4" || addr.AddrType == "ipv6" {
			return addr.Addr
		}
	}
	return ""
}

// ParseNmapXML decodes an nmap XML report
func ParseNmapXML(r io.Reader) (*NmapRun, error) {
	var run NmapRun
	if err := xml.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("invalid nmap XML: %w", err)
	}
	return &run, nil
}

// NmapImporter imports nmap XML reports
type NmapImporter struct {
	store *Store
}

// NewNmapImporter creates an NmapImporter
func NewNmapImporter(store *Store) *NmapImporter {
	return &NmapImporter{store: store}
}

// ImportFile imports the nmap XML report at path
func (i *NmapImporter) ImportFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	run, err := ParseNmapXML(f)
	if err != nil {
		return err
	}

	return i.store.InTx(ctx, func(w *Writer) error {
		return importNmapRun(ctx, w, run)
	})
}

func importNmapRun(ctx context.Context, w *Writer, run *NmapRun) error {
	for _, host := range run.Hosts {
		address := host.IPAddress()
		if address == "" {
			continue
		}

		if err := w.UpsertHost(ctx, Host{Address: address, Status: host.Status.State}); err != nil {
			return err
		}

		for _, name := range host.Hostnames {
			if name.Name == "" {
				continue
			}
			if err := w.UpsertHostName(ctx, name.Name, address); err != nil {
				return err
			}
		}

		for _, port := range host.Ports {
			err := w.UpsertPort(ctx, Port{
				Address:  address,
				Protocol: port.Protocol,
				Number:   port.PortID,
				State:    port.State.State,
				Service:  port.Service.Name,
				Product:  port.Service.Product,
				Version:  port.Service.Version,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
