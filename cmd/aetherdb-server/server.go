package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/db"
)

// Server exposes the AetherDB engine over TCP, one statement per line.
// Every connection must authenticate before it can execute anything.
type Server struct {
	listener net.Listener
	engine   *db.Engine
	secret   string
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewServer(engine *db.Engine, secret string) *Server {
	return &Server{
		engine: engine,
		secret: secret,
		done:   make(chan struct{}),
	}
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	log.Printf("AetherDB server listening on %s", listener.Addr())

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	log.Printf("Client connected: %s", conn.RemoteAddr())

	state := &ConnectionState{}
	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("Read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if lower == "quit" || lower == "exit" {
			log.Printf("Client disconnected: %s", conn.RemoteAddr())
			return
		}

		var response Response
		if strings.HasPrefix(strings.ToUpper(line), "AUTH ") {
			response = s.handleAuth(line, state)
		} else if !state.IsAuthenticated() {
			response = Response{Success: false, Error: "not authenticated: send AUTH LOGIN <user> [password] first"}
		} else {
			response = s.executeQuery(line, state)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			log.Printf("Failed to encode response: %v", err)
			continue
		}
		if _, err := conn.Write(data); err != nil {
			log.Printf("Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) executeQuery(query string, state *ConnectionState) Response {
	result, err := s.engine.Execute(query, state.session)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}

	switch r := result.(type) {
	case db.QueryResult:
		data := make([][]string, len(r.Rows))
		for i, row := range r.Rows {
			cells := make([]string, len(row))
			for j, value := range row {
				cells[j] = value.String()
			}
			data[i] = cells
		}
		qr := QueryResponse{
			Columns:     r.Columns,
			Data:        data,
			RecordsRead: len(r.Rows),
			TimeMs:      r.ExecutionTimeSec * 1000,
		}
		payload, _ := json.Marshal(qr)
		return Response{Success: true, Type: "query", Result: payload}

	case db.CommitResult:
		cr := CommitResponse{
			TablesCreated:  r.TablesCreated,
			TablesRenamed:  r.TablesRenamed,
			ColumnsAdded:   r.ColumnsAdded,
			RecordsWritten: r.RecordsWritten,
			RecordsUpdated: r.RecordsUpdated,
			RecordsDeleted: r.RecordsDeleted,
			TimeMs:         r.ExecutionTimeSec * 1000,
		}
		payload, _ := json.Marshal(cr)
		return Response{Success: true, Type: "commit", Result: payload}

	default:
		return Response{Success: true, Type: "unknown"}
	}
}
