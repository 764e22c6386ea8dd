// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/sealed"
	"github.com/bureau-foundation/uaconsole/lib/secret"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

func (c *Controller) useAnonymous() Outcome {
	c.mu.Lock()
	c.identity = remote.Identity{Kind: remote.IdentityAnonymous}
	c.mu.Unlock()
	c.print("Using anonymous user identity")
	return OutcomeDone
}

func (c *Controller) useUserName() Outcome {
	identity, err := c.userIdentity()
	if err != nil {
		return c.failed("Set user identity", err)
	}
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	c.printf("Using user identity %s", identity.UserName)
	return OutcomeDone
}

// userIdentity builds the configured username identity. A sealed
// password is opened with the key file and takes precedence over the
// plain one.
func (c *Controller) userIdentity() (remote.Identity, error) {
	connection := c.settings.Connection
	identity := remote.Identity{
		Kind:     remote.IdentityUserName,
		UserName: connection.UserName,
		Password: connection.Password,
	}
	if connection.PasswordSealed == "" {
		return identity, nil
	}

	key, err := secret.ReadFile(connection.KeyFile)
	if err != nil {
		return remote.Identity{}, fmt.Errorf("reading key file: %w", err)
	}
	defer key.Close()

	password, err := sealed.OpenPassword(connection.PasswordSealed, key)
	if err != nil {
		return remote.Identity{}, fmt.Errorf("opening sealed password: %w", err)
	}
	defer password.Close()
	identity.Password = password.String()
	return identity, nil
}

func (c *Controller) connect(ctx context.Context, security remote.SecurityLevel) Outcome {
	url := c.settings.Connection.DiscoveryURL
	request := remote.ConnectRequest{
		URL:      url,
		Security: security,
		Identity: c.Identity(),
	}
	return c.open(ctx, request, url)
}

func (c *Controller) connectEndpoint(ctx context.Context, index int) Outcome {
	c.mu.Lock()
	endpoints := c.endpoints
	c.mu.Unlock()
	if index < 0 || index >= len(endpoints) {
		return c.aborted(fmt.Sprintf("No endpoint with index %d.", index))
	}
	endpoint := endpoints[index]
	request := remote.ConnectRequest{
		Endpoint: endpoint,
		Identity: c.Identity(),
	}
	return c.open(ctx, request, endpoint.URL)
}

// open connects and prepares the new session: session state of any
// previous session is forgotten and the configured node ids are mapped
// onto the server's namespace array.
func (c *Controller) open(ctx context.Context, request remote.ConnectRequest, url string) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.service.Connect(requestCtx, request); err != nil {
		return c.failed("Connect", err)
	}

	c.resetSession(true)
	c.logger.Info("connected", "url", url, "identity", request.Identity.String())
	c.printf("Successfully connected to %s as %s", url, request.Identity)
	c.mapNamespaces(ctx)
	return OutcomeDone
}

// resetSession forgets the state tied to the current session and starts
// a new generation. Continuation points and registered handles are only
// valid for the session that issued them.
func (c *Controller) resetSession(active bool) {
	c.mu.Lock()
	c.generation++
	c.active = active
	forgotten := len(c.registered)
	c.registered = nil
	c.dictionary = nil
	c.subscription = nil
	c.publishing = false
	clear(c.items)
	c.nodes = c.configured
	c.mu.Unlock()

	c.alarms.Deactivate()
	c.browse.Drop()
	c.history.Drop()
	c.historyEvents.Drop()
	if forgotten > 0 {
		c.printf("%d registered nodes forgotten with the previous session", forgotten)
	}
}

// mapNamespaces reads the server's namespace array and remaps the
// configured node ids. Ids that cannot be mapped are used as
// configured.
func (c *Controller) mapNamespaces(ctx context.Context) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	values, err := c.service.Read(requestCtx, []remote.ReadValueID{{
		NodeID:    ua.ServerNamespaceArray,
		Attribute: ua.AttributeValue,
	}})
	if err == nil && len(values) == 1 {
		err = values[0].Status.Err()
	}
	if err != nil {
		c.logger.Warn("reading namespace array failed", "error", err)
		c.printf("Reading the namespace array failed with message %v; node ids are used as configured", err)
		return
	}
	uris, ok := values[0].Value.Value.([]string)
	if !ok {
		c.printf("The namespace array is a %s, not a String array; node ids are used as configured", values[0].Value.Type)
		return
	}

	nodes, unmapped := c.configured.remap(c.settings.NamespaceTable(), ua.NamespaceTable(uris))
	c.mu.Lock()
	c.nodes = nodes
	c.mu.Unlock()
	for _, id := range unmapped {
		c.logger.Warn("node id namespace not mapped", "node_id", id.String())
		c.printf("Namespace of %s could not be mapped; the node id is used unchanged", id)
	}
}

func (c *Controller) findServers(ctx context.Context) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	servers, err := c.service.FindServers(requestCtx, c.settings.Connection.DiscoveryURL)
	if err != nil {
		return c.failed("FindServers", err)
	}

	var urls []string
	lines := []string{"FindServers succeeded"}
	for _, server := range servers {
		for _, url := range server.DiscoveryURLs {
			lines = append(lines, fmt.Sprintf("  %s: %s - %s", indexKey(len(urls)), server.ApplicationName, url))
			urls = append(urls, url)
		}
	}
	if len(urls) == 0 {
		c.print("FindServers returned no discovery URLs")
		return OutcomeFailed
	}
	c.print(lines...)

	c.mu.Lock()
	c.discoveryURLs = urls
	c.mu.Unlock()
	return OutcomeDone
}

func (c *Controller) getEndpointsAt(ctx context.Context, index int) Outcome {
	c.mu.Lock()
	urls := c.discoveryURLs
	c.mu.Unlock()
	if index < 0 || index >= len(urls) {
		return c.aborted(fmt.Sprintf("No discovery URL with index %d.", index))
	}
	return c.getEndpoints(ctx, urls[index])
}

func (c *Controller) getEndpoints(ctx context.Context, url string) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	endpoints, err := c.service.GetEndpoints(requestCtx, url)
	if err != nil {
		return c.failed("GetEndpoints", err)
	}
	if len(endpoints) == 0 {
		c.printf("GetEndpoints returned no endpoints for %s", url)
		return OutcomeFailed
	}

	lines := []string{"GetEndpoints succeeded"}
	for i, endpoint := range endpoints {
		lines = append(lines, fmt.Sprintf("  %s: %s - %s - %s - level %d",
			indexKey(i), endpoint.URL, endpoint.SecurityPolicy, endpoint.SecurityMode, endpoint.SecurityLevel))
	}
	c.print(lines...)

	c.mu.Lock()
	c.endpoints = endpoints
	c.mu.Unlock()
	return OutcomeDone
}

func (c *Controller) disconnect(ctx context.Context) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.service.Disconnect(requestCtx); err != nil {
		return c.failed("Disconnect", err)
	}
	c.resetSession(false)
	c.print("Disconnected")
	return OutcomeDone
}

// changeUser switches the open session between the anonymous and the
// username identity.
func (c *Controller) changeUser(ctx context.Context) Outcome {
	identity := remote.Identity{Kind: remote.IdentityAnonymous}
	if c.Identity().Kind == remote.IdentityAnonymous {
		var err error
		if identity, err = c.userIdentity(); err != nil {
			return c.failed("ChangeUser", err)
		}
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.service.ChangeUser(requestCtx, identity); err != nil {
		return c.failed("ChangeUser", err)
	}
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
	c.printf("ChangeUser succeeded, now %s", identity)
	return OutcomeDone
}

// shutdown tears down the subscription and the session. Teardown
// failures are reported; shutdown always completes.
func (c *Controller) shutdown(ctx context.Context) Outcome {
	c.mu.Lock()
	active := c.active
	subscription := c.subscription
	c.mu.Unlock()

	if subscription != nil {
		requestCtx, cancel := c.requestContext(ctx)
		if err := subscription.Delete(requestCtx); err != nil {
			c.logger.Warn("deleting subscription on shutdown failed", "error", err)
		}
		cancel()
	}
	c.releaseAll(ctx)
	if active {
		requestCtx, cancel := c.requestContext(ctx)
		if err := c.service.Disconnect(requestCtx); err != nil {
			c.logger.Warn("disconnect on shutdown failed", "error", err)
		}
		cancel()
	}
	c.resetSession(false)
	c.print("Shutdown")
	return OutcomeDone
}

// indexKey is the key that selects the i-th listed entry; the inverse
// of IndexFromKey.
func indexKey(i int) string {
	switch {
	case i >= 0 && i < 10:
		return string(rune('0' + i))
	case i >= 10 && i < 36:
		return string(rune('a' + i - 10))
	}
	return "-"
}
