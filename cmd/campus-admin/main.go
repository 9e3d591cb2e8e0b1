// Command campus-admin is the operator-side publisher: it creates a
// notification and targets it at one or more students. On the hosted
// backend each delivery insert fires the trigger that pushes a realtime
// event to connected clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/campus-companion/internal/credential"
	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/store"
)

func main() {
	var (
		cfgPath  = flag.String("config", model.DefaultConfigPath(), "path to config file")
		title    = flag.String("title", "", "notification title (required)")
		message  = flag.String("message", "", "notification message")
		ntype    = flag.String("type", string(model.TypeAnnouncement), "type: exam_reminder|event|opportunity|timetable_update|announcement|custom")
		priority = flag.String("priority", string(model.PriorityNormal), "priority: urgent|high|normal|low")
		expires  = flag.Duration("expires-in", 0, "optional time-to-live, e.g. 24h (0 = never expires)")
		users    = flag.String("users", "", "comma-separated student ids to deliver to (required)")
		draft    = flag.Bool("draft", false, "create unpublished; draft notifications are invisible to clients")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{})

	if *title == "" || *users == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*cfgPath, *title, *message, *ntype, *priority, *expires, *users, *draft, log); err != nil {
		log.WithError(err).Fatal("publish failed")
	}
}

func run(
	cfgPath, title, message, ntype, priority string,
	expires time.Duration,
	users string,
	draft bool,
	log *logrus.Logger,
) error {
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	dsn := credential.BackendDSN(cfg.Backend.Driver, cfg.Backend.DSN)

	st, err := store.NewSQLStore(cfg.Backend.Driver, dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	n := model.Notification{
		Title:       title,
		Message:     message,
		Type:        model.NotificationType(ntype),
		Priority:    model.Priority(priority),
		IsPublished: !draft,
		CreatedAt:   time.Now(),
	}
	if expires > 0 {
		t := time.Now().Add(expires)
		n.ExpiresAt = &t
	}

	ctx := context.Background()

	id, err := st.CreateNotification(ctx, n)
	if err != nil {
		return err
	}

	delivered := 0
	for _, user := range strings.Split(users, ",") {
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}
		if err := st.AddDelivery(ctx, id, user); err != nil {
			log.WithError(err).WithField("user_id", user).Error("delivery failed")
			continue
		}
		delivered++
	}

	log.WithFields(logrus.Fields{
		"notification_id": id,
		"delivered":       delivered,
	}).Info("notification published")
	fmt.Println(id)

	return nil
}
