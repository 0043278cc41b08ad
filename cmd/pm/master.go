package main

import (
	"context"
	"fmt"
)

func runMasterSet(ctx context.Context, args []string) error {
	_, svc, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer svc.Close()

	ok, err := svc.Initialized(ctx)
	if err != nil {
		return err
	}
	if ok {
		return userError{msg: "vault already initialised; use pm master change"}
	}

	pw, err := promptConfirmed(promptPassword, "Enter master password: ", "Confirm master password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	if err := svc.SetupMasterPassword(ctx, string(pw)); err != nil {
		return err
	}
	fmt.Printf("master password set; vault at %s\n", svc.Path())
	return nil
}

func runMasterChange(ctx context.Context, args []string) error {
	_, svc, err := setup(ctx, args)
	if err != nil {
		return err
	}
	defer svc.Close()

	oldPw, err := promptPassword("Old master password: ")
	if err != nil {
		return fmt.Errorf("read old master password: %w", err)
	}
	defer zeroBytes(oldPw)

	if err := svc.Unlock(ctx, string(oldPw)); err != nil {
		return err
	}

	newPw, err := promptConfirmed(promptPassword, "New master password: ", "Confirm new master password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(newPw)

	n, err := svc.Rotate(ctx, string(oldPw), string(newPw))
	if err != nil {
		return err
	}
	fmt.Printf("master password changed; %d entries re-encrypted\n", n)
	return nil
}
