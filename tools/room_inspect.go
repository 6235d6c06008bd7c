package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"room-lab/domain"
	"room-lab/repositories"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Config error: ", err)
	}
	dbPath := flag.String("db", cfg.BadgerFilepath, "Path to badger DB")
	withSessions := flag.Bool("sessions", false, "Also list the sessions of every room")
	flag.Parse()

	// BypassLockGuard lets the tool read while the server holds the lock
	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	repository := repositories.NewRoomRepository(db, slog.Default())
	rooms, err := repository.ListRooms(ctx)
	if err != nil {
		log.Fatal("Error while listing rooms: ", err)
	}

	table := newTable([]string{"Room ID", "Name", "Status", "Created By", "Created At", "Participants"})
	for _, room := range rooms {
		table.Append([]string{
			string(room.ID),
			room.Name,
			string(room.Status),
			room.CreatedBy,
			room.CreatedAt.Format("2006-01-02 15:04:05"),
			participantsOf(room.Participants),
		})
	}
	table.Render()
	fmt.Printf("\n%d room(s)\n", len(rooms))

	if !*withSessions {
		return
	}
	fmt.Println()
	sessions := newTable([]string{"Session ID", "Room ID", "Started At", "Status", "Size"})
	for _, room := range rooms {
		found, err := repository.FindSessionsByRoom(ctx, room.ID)
		if err != nil {
			log.Fatal("Error while listing sessions: ", err)
		}
		for _, s := range found {
			sessions.Append([]string{
				string(s.ID),
				string(s.RoomID),
				s.StartedAt.Format("2006-01-02 15:04:05"),
				string(s.Status),
				strconv.Itoa(len(s.Participants)),
			})
		}
	}
	sessions.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func participantsOf(participants []domain.Participant) string {
	return strings.Join(lo.Map(participants, func(p domain.Participant, _ int) string {
		return fmt.Sprintf("%s(%s)", p.DisplayName, p.Role)
	}), ", ")
}
