package spider

import (
	"github.com/temoto/robotstxt"
)

// robotsRules is a parsed robots.txt bound to the spider's user agent.
// A nil *robotsRules allows everything.
type robotsRules struct {
	data  *robotstxt.RobotsData
	agent string
}

// parseRobots interprets a robots.txt response. 4xx responses allow
// everything and 5xx responses disallow everything.
func parseRobots(statusCode int, body []byte, agent string) *robotsRules {
	data, err := robotstxt.FromStatusAndBytes(statusCode, body)
	if err != nil {
		return nil
	}
	return &robotsRules{data: data, agent: agent}
}

func (r *robotsRules) allowed(path string) bool {
	if r == nil {
		return true
	}
	return r.data.TestAgent(path, r.agent)
}
