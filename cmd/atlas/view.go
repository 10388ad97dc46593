package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlas/internal/edit"
	"github.com/beetlebugorg/atlas/internal/input"
	"github.com/beetlebugorg/atlas/internal/render/terminal"
	"github.com/beetlebugorg/atlas/pkg/atlas"
)

const (
	panStep    = 4
	zoomFactor = 1.5
	frameRate  = 100 * time.Millisecond
)

func viewCmd(env envFunc) *cobra.Command {
	var editing bool

	cmd := &cobra.Command{
		Use:   "view [scene-file]",
		Short: "Show a scene in the terminal",
		Long: `Show a scene in the terminal.

Arrow keys pan, + and - zoom, f fits the scene and q quits. Mouse
clicks select entities. With --edit, drag entities and
their handles to move them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := env()
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newAtlas(cfg, logger)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()
			screen.EnableMouse()

			w, h := screen.Size()
			backend := terminal.New(screen, terminal.NewViewport(cfg.View.Bounds(), w, h), terminal.Options{Logger: logger})
			if err := a.AttachTo(backend); err != nil {
				return err
			}
			doc, err := loadScene(a, args[0])
			if err != nil {
				return fmt.Errorf("loading scene: %w", err)
			}
			if cfg.View.Fit {
				backend.SetViewport(backend.Viewport().Fit(backend.Bounds()))
			}
			if editing {
				a.Serialize(func() { err = a.Edit().Enable(edit.EnableArgs{IDs: doc.IDs()}) })
				if err != nil {
					return err
				}
			}

			v := &viewer{
				atlas:   a,
				screen:  screen,
				backend: backend,
				input:   input.NewTranslator(a.Bus(), backend, input.Options{Logger: logger}),
			}
			v.run()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&editing, "edit", "e", false, "start with editing enabled")
	return cmd
}

type viewer struct {
	atlas   *atlas.Atlas
	screen  tcell.Screen
	backend *terminal.Backend
	input   *input.Translator
}

func (v *viewer) run() {
	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	v.backend.Render()
	for {
		select {
		case ev, ok := <-eventChan:
			if !ok || !v.handle(ev) {
				return
			}
			v.backend.Render()

		case <-ticker.C:
			// Dynamic projections redraw on their own timers.
			v.backend.Render()
		}
	}
}

// handle processes one terminal event. It returns false to quit.
func (v *viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		v.backend.SetViewport(v.backend.Viewport().Resize(w, h))
		v.screen.Sync()
		return true

	case *tcell.EventKey:
		vp := v.backend.Viewport()
		switch {
		case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyUp:
			v.backend.SetViewport(vp.Pan(0, -panStep))
			return true
		case ev.Key() == tcell.KeyDown:
			v.backend.SetViewport(vp.Pan(0, panStep))
			return true
		case ev.Key() == tcell.KeyLeft:
			v.backend.SetViewport(vp.Pan(-panStep, 0))
			return true
		case ev.Key() == tcell.KeyRight:
			v.backend.SetViewport(vp.Pan(panStep, 0))
			return true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == '+' || ev.Rune() == '='):
			v.backend.SetViewport(vp.Zoom(zoomFactor))
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == '-':
			v.backend.SetViewport(vp.Zoom(1 / zoomFactor))
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'f':
			v.backend.SetViewport(vp.Fit(v.backend.Bounds()))
			return true
		}
	}

	var err error
	v.atlas.Serialize(func() {
		_, err = v.input.Handle(ev)
	})
	if err != nil {
		v.atlas.Logger().Printf("input: %v", err)
	}
	return true
}
